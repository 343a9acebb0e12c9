package mercadopago

import (
	"strconv"
	"strings"
	"time"

	"github.com/pyar/asocmembers/internal/reconcile"
	"go.uber.org/zap"
)

// Filter narrows which gateway payments become reconciliation records.
type Filter struct {
	Prefixes  []string
	PaymentID *int64
	PayerID   string
}

// Active reports whether the filter targets a single payment or payer.
func (f Filter) Active() bool {
	return f.PaymentID != nil || f.PayerID != ""
}

// ParseRecords keeps subscription payments with a payer and a positive amount.
func ParseRecords(log *zap.Logger, payments []Payment, filter Filter) []reconcile.Record {
	records := make([]reconcile.Record, 0, len(payments))
	for _, p := range payments {
		if p.Payer == nil || p.Payer.ID == "" {
			log.Debug("discarding record without payer", zap.Int64("payment_id", p.ID))
			continue
		}
		payerID := string(p.Payer.ID)

		if !hasPrefix(p.Description, filter.Prefixes) {
			log.Debug("discarding non-subscription record",
				zap.Int64("payment_id", p.ID),
				zap.String("description", p.Description),
			)
			continue
		}

		if filter.PaymentID != nil && p.ID != *filter.PaymentID {
			continue
		}
		if filter.PayerID != "" && payerID != filter.PayerID {
			continue
		}

		timestamp, err := time.Parse(time.RFC3339Nano, p.DateApproved)
		if err != nil {
			log.Debug("discarding record with invalid approval date",
				zap.Int64("payment_id", p.ID),
				zap.String("date_approved", p.DateApproved),
			)
			continue
		}

		if !p.TransactionAmount.IsPositive() {
			log.Debug("discarding invalid amount",
				zap.Int64("payment_id", p.ID),
				zap.String("amount", p.TransactionAmount.String()),
			)
			continue
		}

		records = append(records, reconcile.Record{
			PayerID:   payerID,
			Timestamp: timestamp,
			Amount:    p.TransactionAmount,
			EventID:   strconv.FormatInt(p.ID, 10),
		})
	}
	return records
}

func hasPrefix(description string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(description, prefix) {
			return true
		}
	}
	return false
}
