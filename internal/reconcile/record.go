package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one payment event reported by the gateway.
type Record struct {
	PayerID   string          `json:"payer_id"`
	Timestamp time.Time       `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	EventID   string          `json:"event_id"`
}

// Summary counts what a reconciliation run did with its input.
type Summary struct {
	Groups          int `json:"groups"`
	Recorded        int `json:"recorded"`
	UnknownPayer    int `json:"unknown_payer"`
	AmbiguousMember int `json:"ambiguous_member"`
	AlreadyRecorded int `json:"already_recorded"`
	DuplicateEvents int `json:"duplicate_events"`
}

type group struct {
	payerID string
	records []Record
}

// groupRecords splits records per payer, keeping the order in which payers
// first appear. Repeated event ids inside a payer keep the first occurrence.
// Each group ends up sorted by timestamp; equal timestamps keep input order.
func groupRecords(records []Record) ([]group, int) {
	index := map[string]int{}
	seen := map[string]map[string]struct{}{}
	groups := []group{}
	duplicates := 0

	for _, rec := range records {
		pos, ok := index[rec.PayerID]
		if !ok {
			pos = len(groups)
			index[rec.PayerID] = pos
			groups = append(groups, group{payerID: rec.PayerID})
			seen[rec.PayerID] = map[string]struct{}{}
		}
		if _, dup := seen[rec.PayerID][rec.EventID]; dup {
			duplicates++
			continue
		}
		seen[rec.PayerID][rec.EventID] = struct{}{}
		groups[pos].records = append(groups[pos].records, rec)
	}

	for i := range groups {
		recs := groups[i].records
		sort.SliceStable(recs, func(a, b int) bool {
			return recs[a].Timestamp.Before(recs[b].Timestamp)
		})
	}
	return groups, duplicates
}

// pendingAfter returns the records not yet covered by a payment recorded at last.
// gap reports that the exact recorded event was missing from the batch.
func pendingAfter(records []Record, last time.Time) (pending []Record, gap bool) {
	for i, rec := range records {
		if rec.Timestamp.Equal(last) {
			return records[i+1:], false
		}
		if rec.Timestamp.After(last) {
			return records[i:], true
		}
	}
	return nil, false
}
