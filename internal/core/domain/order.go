package domain

import (
	"fmt"
)

// Status is the vendor-reported lifecycle state of a document.
type Status string

const (
	StatusCreated    Status = "created"
	StatusAvailable  Status = "available"
	StatusProcessing Status = "processing"
	StatusReleased   Status = "released"
	StatusError      Status = "error"
)

// Terminal reports whether the vendor will not move the document further.
func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusError
}

// PaymentTypeUponApplication is the only payment type the portal accepts for
// codes orders created through this flow.
const PaymentTypeUponApplication = "uponApplication"

// Position is one product line of a codes order.
// Field names follow the vendor schema exactly.
type Position struct {
	GTIN      string `json:"gtin"`
	Name      string `json:"name"`
	TNVEDCode string `json:"tnvedCode"`
	Quantity  int    `json:"quantity"`
}

// Validate checks the position holds everything the vendor requires.
func (p Position) Validate() error {
	if p.GTIN == "" {
		return fmt.Errorf("position: gtin is required")
	}
	if p.Name == "" {
		return fmt.Errorf("position %s: name is required", p.GTIN)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("position %s: quantity must be positive, got %d", p.GTIN, p.Quantity)
	}
	return nil
}

// OrderDraft is the single-request create payload for a codes order.
type OrderDraft struct {
	DocumentNumber    string     `json:"documentNumber"`
	Comment           string     `json:"comment"`
	ProductGroup      string     `json:"productGroup"`
	ReleaseMethodType string     `json:"releaseMethodType"`
	FillingMethod     string     `json:"fillingMethod"`
	CisType           string     `json:"cisType"`
	Positions         []Position `json:"positions"`
}

// Validate checks the draft is complete enough to submit.
func (d OrderDraft) Validate() error {
	if d.DocumentNumber == "" {
		return fmt.Errorf("order draft: documentNumber is required")
	}
	if len(d.Positions) == 0 {
		return fmt.Errorf("order draft %s: at least one position is required", d.DocumentNumber)
	}
	for _, p := range d.Positions {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("order draft %s: %w", d.DocumentNumber, err)
		}
	}
	return nil
}

// OrderStub is the minimal create payload of the multistep flow. The order
// is created empty and filled in by a follow-up update plus positions.
type OrderStub struct {
	ReleaseMethodType  string `json:"releaseMethodType"`
	Comment            string `json:"comment"`
	DocumentNumber     string `json:"documentNumber"`
	ProductGroup       string `json:"productGroup"`
	HasServiceProvider bool   `json:"hasServiceProvider"`
}

// OrderUpdate is the PUT payload of the multistep flow.
type OrderUpdate struct {
	DocumentNumber   string `json:"documentNumber"`
	Comment          string `json:"comment"`
	FillingMethod    string `json:"fillingMethod"`
	HasProducerInn   bool   `json:"hasProducerInn"`
	WithUnitsForSets bool   `json:"withUnitsForSets"`
	PaymentType      string `json:"paymentType"`
	CisType          string `json:"cisType"`
}

// PositionDraft adds a new, still-empty position to a multistep order.
type PositionDraft struct {
	GTIN      string `json:"gtin"`
	Name      string `json:"name"`
	TNVEDCode string `json:"tnvedCode"`
}

// PositionPatch fills in an existing position of a multistep order.
type PositionPatch struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	TNVEDCode string `json:"tnvedCode"`
}

// Order is the vendor's view of a codes order.
type Order struct {
	ID             string     `json:"id"`
	DocumentNumber string     `json:"documentNumber,omitempty"`
	Status         Status     `json:"status"`
	ProductGroup   string     `json:"productGroup,omitempty"`
	Positions      []Position `json:"positions,omitempty"`
}

// Available reports whether the order is ready for the signing step.
func (o Order) Available() bool {
	return o.Status == StatusAvailable
}
