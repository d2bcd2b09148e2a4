// Package tracker implements the order reconciliation engine: it folds
// normalized observations from the bulk export and the live-event log into
// per-order aggregates and derives each order's fulfillment classification.
package tracker

import (
	"strings"

	"github.com/sells-group/ordertrack/internal/extract"
)

// KeyMode selects how an order key is formed.
type KeyMode string

const (
	// KeyModeComposite keys orders by prefix + reference number.
	KeyModeComposite KeyMode = "composite"
	// KeyModeSingle keys orders by one order-value field.
	KeyModeSingle KeyMode = "single"
)

// CarryMode selects the blank-cell inheritance rule for bootstrap rows.
type CarryMode string

const (
	// CarryPaired inherits actor and stage together, and only when both
	// are blank on the current row.
	CarryPaired CarryMode = "paired"
	// CarryPerField gives every field its own last-seen memory.
	CarryPerField CarryMode = "per_field"
)

// View selects which orders a classification pass emits.
type View string

const (
	// ViewClassified drops orders with neither completion flag.
	ViewClassified View = "classified"
	// ViewAll emits every order regardless of flags.
	ViewAll View = "all"
)

// Aliases maps report columns and webhook keys onto semantic fields.
// Each list is in priority order: the first matching alias wins.
type Aliases struct {
	Prefix []string
	Ref    []string
	Order  []string
	Stage  []string
	Actor  []string
	Time   []string
}

// Entry is one normalized observation of an order, regardless of origin.
type Entry struct {
	Prefix     string        `json:"prefix,omitempty"`
	RefNumber  string        `json:"ref_number,omitempty"`
	OrderValue string        `json:"order_value,omitempty"`
	Stage      string        `json:"stage"`
	Actor      string        `json:"user"`
	ObservedAt string        `json:"added_time"`
	Raw        extract.Value `json:"raw"`
}

// OrderKey returns the identifier that groups observations into one order,
// or "" when the entry carries no usable key. Keyless entries are dropped
// before aggregation.
func (e Entry) OrderKey(mode KeyMode) string {
	if mode == KeyModeSingle {
		return e.OrderValue
	}
	if e.RefNumber == "" {
		return ""
	}
	if e.Prefix != "" {
		return e.Prefix + "-" + e.RefNumber
	}
	return e.RefNumber
}

// SplitOrderValues splits a multi-valued order-key cell on comma, semicolon,
// or newline. Manual exports routinely pack several identifiers into one
// cell.
func SplitOrderValues(raw string) []string {
	if raw == "" {
		return nil
	}
	normalized := strings.ReplaceAll(raw, "\r", "\n")
	for _, sep := range []string{",", ";"} {
		normalized = strings.ReplaceAll(normalized, sep, "\n")
	}
	var items []string
	for _, part := range strings.Split(normalized, "\n") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}
