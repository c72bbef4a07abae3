package domain

import (
	"fmt"
	"time"
)

// History entry kinds.
const (
	HistoryKindOrder        = "order"
	HistoryKindIntroduction = "introduction"
)

// HistoryEntry records one processed document so operators can find, track
// and re-download past orders.
type HistoryEntry struct {
	OrderID        string    `json:"order_id"`
	DocumentNumber string    `json:"document_number"`
	Kind           string    `json:"kind"`
	Status         Status    `json:"status"`
	Quantity       int       `json:"quantity,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	TSDCreated     bool      `json:"tsd_created,omitempty"`
}

// Validate checks the entry can be persisted and found again.
func (e HistoryEntry) Validate() error {
	if e.OrderID == "" {
		return fmt.Errorf("history entry: order_id is required")
	}
	switch e.Kind {
	case HistoryKindOrder, HistoryKindIntroduction:
	default:
		return fmt.Errorf("history entry %s: unknown kind %q", e.OrderID, e.Kind)
	}
	return nil
}
