package tracker

import "sort"

// Record is one entry in the flat, unclassified records view.
type Record struct {
	ID         int    `json:"id"`
	OrderValue string `json:"order_value"`
	Actor      string `json:"dropped_off_by"`
	ObservedAt string `json:"added_time"`
	Stage      string `json:"stage,omitempty"`
}

// RecordsSummary aggregates the records view.
type RecordsSummary struct {
	TotalRecords int `json:"total_records"`
	UniqueOrders int `json:"unique_orders"`
}

// Records builds the flat per-entry view: every keyed entry, no
// classification, sorted by (order value, observed time). IDs reflect fold
// order, so they track arrival order across re-sorts.
func Records(entries []Entry, mode KeyMode) (RecordsSummary, []Record) {
	var rows []Record
	unique := make(map[string]struct{})

	for _, e := range entries {
		key := e.OrderKey(mode)
		if key == "" {
			continue
		}
		rows = append(rows, Record{
			ID:         len(rows) + 1,
			OrderValue: key,
			Actor:      e.Actor,
			ObservedAt: e.ObservedAt,
			Stage:      e.Stage,
		})
		unique[key] = struct{}{}
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.OrderValue != b.OrderValue {
			return a.OrderValue < b.OrderValue
		}
		if a.ObservedAt != b.ObservedAt {
			return a.ObservedAt < b.ObservedAt
		}
		return a.ID < b.ID
	})

	return RecordsSummary{TotalRecords: len(rows), UniqueOrders: len(unique)}, rows
}
