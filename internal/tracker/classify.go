package tracker

import (
	"sort"
	"strings"
)

// OrderType is the derived fulfillment state of an order.
type OrderType string

const (
	OrderTypeComplete OrderType = "complete"
	OrderTypePartial  OrderType = "partial"
	// OrderTypeExcluded marks orders with neither completion flag. The
	// classified view drops them; the all view emits them under this type.
	OrderTypeExcluded OrderType = "excluded"
)

// PartialType names the missing side of a partial order.
type PartialType string

const (
	PartialPaperworkOnly PartialType = "paperwork_only"
	PartialProductOnly   PartialType = "product_only"
)

// Stage labels that flip the completion flags, matched after trimming and
// lower-casing. Anything else is audit-visible in StagesSeen but inert.
const (
	stagePaperwork = "paperwork received"
	stageProduct   = "product received"
)

// ClassifiedOrder is one order's folded aggregate plus its derived
// classification. JSON names follow the dashboard wire format.
type ClassifiedOrder struct {
	OrderKey          string      `json:"order_key"`
	Prefix            string      `json:"prefix"`
	RefNumber         string      `json:"ref_number"`
	PaperworkReceived bool        `json:"paperwork_received"`
	ProductReceived   bool        `json:"product_received"`
	ActorsSeen        string      `json:"users_seen"`
	StagesSeen        string      `json:"stages_seen"`
	LatestObservedAt  string      `json:"latest_added_time"`
	EntryCount        int         `json:"rows_for_order"`
	OrderType         OrderType   `json:"order_type"`
	PartialType       PartialType `json:"partial_type"`
}

// Summary aggregates the emitted order list. It is derived purely from that
// list so the two can never disagree.
type Summary struct {
	TotalOrdersInView int `json:"total_orders_in_view"`
	CompleteBoth      int `json:"complete_both"`
	PartialOne        int `json:"partial_one"`
	PaperworkOnly     int `json:"paperwork_only"`
	ProductOnly       int `json:"product_only"`
}

// aggregate is the fold state for one order key. It lives only for the
// duration of one classification pass.
type aggregate struct {
	prefix    string
	ref       string
	paperwork bool
	product   bool
	actors    map[string]struct{}
	stages    map[string]struct{}
	latest    string
	count     int
}

// Classify folds entries in arrival order into one aggregate per order key
// and derives a classification for each. The completion flags OR-accumulate,
// so their final value is independent of entry order; only LatestObservedAt
// is last-write-wins. Keyless entries are discarded. Running the pass twice
// over the same entries yields identical output.
func Classify(entries []Entry, mode KeyMode, view View) (Summary, []ClassifiedOrder) {
	orders := make(map[string]*aggregate)

	for _, e := range entries {
		key := e.OrderKey(mode)
		if key == "" {
			continue
		}

		o, ok := orders[key]
		if !ok {
			o = &aggregate{
				actors: make(map[string]struct{}),
				stages: make(map[string]struct{}),
			}
			orders[key] = o
		}

		o.prefix = e.Prefix
		if mode == KeyModeSingle {
			o.ref = e.OrderValue
		} else {
			o.ref = e.RefNumber
		}

		if e.Actor != "" {
			o.actors[e.Actor] = struct{}{}
		}
		if e.Stage != "" {
			o.stages[e.Stage] = struct{}{}
			switch strings.ToLower(strings.TrimSpace(e.Stage)) {
			case stagePaperwork:
				o.paperwork = true
			case stageProduct:
				o.product = true
			}
		}
		if e.ObservedAt != "" {
			o.latest = e.ObservedAt
		}
		o.count++
	}

	rows := make([]ClassifiedOrder, 0, len(orders))
	for key, o := range orders {
		row := ClassifiedOrder{
			OrderKey:          key,
			Prefix:            o.prefix,
			RefNumber:         o.ref,
			PaperworkReceived: o.paperwork,
			ProductReceived:   o.product,
			ActorsSeen:        joinSet(o.actors),
			StagesSeen:        joinSet(o.stages),
			LatestObservedAt:  o.latest,
			EntryCount:        o.count,
		}

		switch {
		case o.paperwork && o.product:
			row.OrderType = OrderTypeComplete
		case o.paperwork:
			row.OrderType = OrderTypePartial
			row.PartialType = PartialPaperworkOnly
		case o.product:
			row.OrderType = OrderTypePartial
			row.PartialType = PartialProductOnly
		default:
			if view != ViewAll {
				continue
			}
			row.OrderType = OrderTypeExcluded
		}

		rows = append(rows, row)
	}

	sortOrders(rows, mode)

	summary := Summary{TotalOrdersInView: len(rows)}
	for _, r := range rows {
		switch r.OrderType {
		case OrderTypeComplete:
			summary.CompleteBoth++
		case OrderTypePartial:
			summary.PartialOne++
		}
		switch r.PartialType {
		case PartialPaperworkOnly:
			summary.PaperworkOnly++
		case PartialProductOnly:
			summary.ProductOnly++
		}
	}

	return summary, rows
}

// sortOrders applies the deterministic total output ordering: (prefix, ref,
// key) in composite mode, (value, latest time, key) in single mode. Order
// keys are unique per pass, so the final comparand makes the order total and
// keeps map iteration from leaking through.
func sortOrders(rows []ClassifiedOrder, mode KeyMode) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if mode == KeyModeSingle {
			if a.RefNumber != b.RefNumber {
				return a.RefNumber < b.RefNumber
			}
			if a.LatestObservedAt != b.LatestObservedAt {
				return a.LatestObservedAt < b.LatestObservedAt
			}
			return a.OrderKey < b.OrderKey
		}
		if a.Prefix != b.Prefix {
			return a.Prefix < b.Prefix
		}
		if a.RefNumber != b.RefNumber {
			return a.RefNumber < b.RefNumber
		}
		return a.OrderKey < b.OrderKey
	})
}

func joinSet(set map[string]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	items := make([]string, 0, len(set))
	for s := range set {
		items = append(items, s)
	}
	sort.Strings(items)
	return strings.Join(items, "; ")
}
