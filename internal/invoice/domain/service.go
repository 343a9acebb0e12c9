package domain

import (
	"context"
	"errors"
	"fmt"
)

// Summary reports the outcome of one invoice generation run.
type Summary struct {
	Pending   int `json:"pending"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type Service interface {
	// GenerateMissing numbers, renders and uploads receipts for up to limit
	// payments that still lack one, oldest first.
	GenerateMissing(ctx context.Context, limit int) (Summary, error)
}

var (
	ErrSellingPointMismatch = errors.New("selling_point_mismatch")
	ErrNoQuotas             = errors.New("payment_without_quotas")
)

// ObjectKey is the file store key of a receipt.
func ObjectKey(spoint, number int) string {
	return fmt.Sprintf("%04d-%08d.pdf", spoint, number)
}
