// Package canonical defines the retailer-agnostic order model every partner
// format is translated into before transmission downstream.
package canonical

import (
	"fmt"
	"strings"
	"time"
)

// Order is the canonical data model for one purchase order document.
// It is built once by the mapping engine, stamped with trace identifiers by
// the orchestrator, and treated as immutable from then on.
type Order struct {
	CorrelationID string
	RetailerID    string

	PONumber              string
	PurchaseOrderType     string
	PODate                time.Time
	RequestedDeliveryDate time.Time

	ShipToName    string
	ShipToAddress string
	ShipToCity    string
	ShipToState   string
	ShipToZip     string

	DepartmentNumber string

	Lines []OrderLine

	InterchangeControlNumber string
	TransactionControlNumber string
}

// OrderLine is one line item of a canonical order.
type OrderLine struct {
	SequenceNumber     int
	SKU                string
	QuantityOrdered    int
	UnitOfMeasure      string
	UnitPrice          float64
	ProductDescription string
}

// TotalValue returns the sum of quantity × unit price across all lines.
func (o *Order) TotalValue() float64 {
	var total float64
	for _, l := range o.Lines {
		total += float64(l.QuantityOrdered) * l.UnitPrice
	}
	return total
}

// ValidationError aggregates every violated invariant of an Order into a
// single error so a failed file reports all problems at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "canonical order validation failed: " + strings.Join(e.Violations, "; ")
}

// Validate checks the order invariants: required scalar fields non-blank,
// at least one line, quantity ≥ 1 and price > 0 on every line. All
// violations are collected into one *ValidationError.
func (o *Order) Validate() error {
	var violations []string

	requireNonBlank := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			violations = append(violations, field+": must not be blank")
		}
	}

	requireNonBlank("correlationId", o.CorrelationID)
	requireNonBlank("retailerId", o.RetailerID)
	requireNonBlank("poNumber", o.PONumber)
	requireNonBlank("purchaseOrderType", o.PurchaseOrderType)
	requireNonBlank("shipToName", o.ShipToName)

	if o.PODate.IsZero() {
		violations = append(violations, "poDate: must not be null")
	}

	if len(o.Lines) == 0 {
		violations = append(violations, "lines: a purchase order must have at least one line item")
	}

	for _, line := range o.Lines {
		prefix := fmt.Sprintf("lines[%d]", line.SequenceNumber)
		if line.SequenceNumber <= 0 {
			violations = append(violations, prefix+".lineSequenceNumber: must be positive")
		}
		if strings.TrimSpace(line.SKU) == "" {
			violations = append(violations, prefix+".sku: must not be blank")
		}
		if line.QuantityOrdered < 1 {
			violations = append(violations, prefix+".quantityOrdered: must be at least 1")
		}
		if strings.TrimSpace(line.UnitOfMeasure) == "" {
			violations = append(violations, prefix+".unitOfMeasure: must not be blank")
		}
		if line.UnitPrice <= 0 {
			violations = append(violations, prefix+".unitPrice: must be positive")
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
