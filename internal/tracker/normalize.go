package tracker

import "github.com/sells-group/ordertrack/internal/extract"

// Normalize converts one live webhook payload into normalized entries using
// the same alias configuration as the bootstrap loader, so both origins
// classify identically. Webhook events are self-contained: there is no
// carry-forward here.
//
// In single-key mode a multi-valued order field yields one entry per
// identifier; in composite mode one entry is produced (possibly keyless,
// which the fold discards).
func Normalize(payload extract.Value, aliases Aliases, mode KeyMode) []Entry {
	src := extract.NewMappingSource(payload.AsMap())

	stage := src.Resolve(aliases.Stage)
	actor := src.Resolve(aliases.Actor)
	observedAt := src.Resolve(aliases.Time)

	if mode == KeyModeSingle {
		var entries []Entry
		for _, item := range SplitOrderValues(src.Resolve(aliases.Order)) {
			entries = append(entries, Entry{
				OrderValue: item,
				Stage:      stage,
				Actor:      actor,
				ObservedAt: observedAt,
				Raw:        payload,
			})
		}
		return entries
	}

	return []Entry{{
		Prefix:     src.Resolve(aliases.Prefix),
		RefNumber:  src.Resolve(aliases.Ref),
		Stage:      stage,
		Actor:      actor,
		ObservedAt: observedAt,
		Raw:        payload,
	}}
}
