package tracker

import (
	"strings"

	"github.com/sells-group/ordertrack/internal/extract"
)

// LoadOptions configures a bootstrap load.
type LoadOptions struct {
	Mode  KeyMode
	Carry CarryMode
}

// LoadBootstrap converts raw bulk-export rows into normalized entries.
//
// Header columns are located independently per field by alias matching over
// the first row. Some exports are dual-header: the real per-field sub-header
// sits in the second row. When the key columns resolve there, data starts at
// row 2, otherwise row 1. Fully blank rows and header-repeat rows are
// skipped, blank cells inherit prior values per the configured carry mode,
// and multi-valued key cells fan out into one entry per identifier.
func LoadBootstrap(rows [][]string, aliases Aliases, opts LoadOptions) []Entry {
	if len(rows) == 0 {
		return nil
	}

	header := extract.NewTabularSource(trimRow(rows[0]))
	var second extract.TabularSource
	if len(rows) > 1 {
		second = extract.NewTabularSource(trimRow(rows[1]))
	}

	cols, dataStart := resolveColumns(header, second, aliases, opts.Mode)
	if dataStart > len(rows) {
		return nil
	}

	keyAliases := aliases.Ref
	if opts.Mode == KeyModeSingle {
		keyAliases = aliases.Order
	}
	repeatLabels := loweredSet(keyAliases)

	var (
		entries []Entry
		carry   carryState
	)

	for _, row := range rows[dataStart:] {
		if rowBlank(row) {
			continue
		}

		cells := rowCells{
			prefix: cellAt(row, cols.prefix),
			key:    cellAt(row, cols.key),
			actor:  cellAt(row, cols.actor),
			stage:  cellAt(row, cols.stage),
			time:   cellAt(row, cols.time),
		}

		// Report exports can repeat the field-name row mid-file.
		if _, isRepeat := repeatLabels[strings.ToLower(cells.key)]; isRepeat {
			continue
		}

		carry.apply(&cells, opts.Carry)

		for _, item := range SplitOrderValues(cells.key) {
			e := Entry{
				Stage:      cells.stage,
				Actor:      cells.actor,
				ObservedAt: cells.time,
			}
			if opts.Mode == KeyModeSingle {
				e.OrderValue = item
			} else {
				e.Prefix = cells.prefix
				e.RefNumber = item
			}
			e.Raw = rawFromRow(e)
			entries = append(entries, e)
		}
	}

	return entries
}

// columnSet holds the resolved column positions; -1 means the column is
// absent from the export.
type columnSet struct {
	prefix int
	key    int // ref number in composite mode, order value in single mode
	actor  int
	stage  int
	time   int
}

func resolveColumns(header, second extract.TabularSource, aliases Aliases, mode KeyMode) (columnSet, int) {
	cols := columnSet{
		actor: header.Column(aliases.Actor),
		stage: header.Column(aliases.Stage),
		time:  header.Column(aliases.Time),
	}
	dataStart := 1

	if mode == KeyModeSingle {
		cols.prefix = -1
		if idx := second.Column(aliases.Order); idx >= 0 {
			cols.key = idx
			dataStart = 2
		} else {
			cols.key = header.Column(aliases.Order)
		}
		return cols, dataStart
	}

	// Legacy exports label the prefix group column "Reference Numbers".
	cols.prefix = header.Column(append(append([]string{}, aliases.Prefix...), "Reference Numbers"))
	cols.key = header.Column(aliases.Ref)

	if sp, sr := second.Column(aliases.Prefix), second.Column(aliases.Ref); sp >= 0 && sr >= 0 {
		cols.prefix = sp
		cols.key = sr
		dataStart = 2
	}

	return cols, dataStart
}

type rowCells struct {
	prefix, key, actor, stage, time string
}

// carryState is the explicit per-invocation accumulator for blank-cell
// inheritance; it never outlives one LoadBootstrap call.
type carryState struct {
	prefix, key, actor, stage, time string
}

func (c *carryState) apply(cells *rowCells, mode CarryMode) {
	switch mode {
	case CarryPerField:
		inherit(&cells.prefix, &c.prefix)
		inherit(&cells.key, &c.key)
		inherit(&cells.actor, &c.actor)
		inherit(&cells.stage, &c.stage)
		inherit(&cells.time, &c.time)
	default: // CarryPaired
		// Actor and stage inherit jointly: a row with one of the two
		// present does not trigger carry-forward for either.
		if cells.actor == "" && cells.stage == "" {
			cells.actor = c.actor
			cells.stage = c.stage
		}
		if cells.actor != "" {
			c.actor = cells.actor
		}
		if cells.stage != "" {
			c.stage = cells.stage
		}
	}
}

func inherit(cell, last *string) {
	if *cell == "" {
		*cell = *last
	}
	if *cell != "" {
		*last = *cell
	}
}

func rawFromRow(e Entry) extract.Value {
	if e.OrderValue != "" {
		return extract.Map(
			extract.Field{Key: "order_value", Value: extract.Scalar(e.OrderValue)},
			extract.Field{Key: "user", Value: extract.Scalar(e.Actor)},
			extract.Field{Key: "stage", Value: extract.Scalar(e.Stage)},
			extract.Field{Key: "added_time", Value: extract.Scalar(e.ObservedAt)},
		)
	}
	return extract.Map(
		extract.Field{Key: "prefix", Value: extract.Scalar(e.Prefix)},
		extract.Field{Key: "ref_number", Value: extract.Scalar(e.RefNumber)},
		extract.Field{Key: "user", Value: extract.Scalar(e.Actor)},
		extract.Field{Key: "stage", Value: extract.Scalar(e.Stage)},
		extract.Field{Key: "added_time", Value: extract.Scalar(e.ObservedAt)},
	)
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func rowBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func loweredSet(aliases []string) map[string]struct{} {
	set := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		set[strings.ToLower(a)] = struct{}{}
	}
	return set
}
