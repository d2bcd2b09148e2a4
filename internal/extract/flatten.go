package extract

import "strconv"

// Flatten collapses a nested payload into a flat key -> stringified-scalar
// table. Mapping children use dotted paths ("parent.child"), sequence
// elements use bracketed indexes ("parent[0]"). A mapping key whose value is
// a scalar is additionally stored under its bare key, so an alias like
// "Stage" matches a deeply nested "form.answers.Stage" as well as a
// top-level field.
func Flatten(v Value) map[string]string {
	out := make(map[string]string)
	flattenInto(v, "", out)
	return out
}

func flattenInto(v Value, prefix string, out map[string]string) {
	switch v.kind {
	case KindMapping:
		for _, f := range v.fields {
			path := f.Key
			if prefix != "" {
				path = prefix + "." + f.Key
			}
			flattenInto(f.Value, path, out)
			if f.Value.kind == KindScalar {
				out[f.Key] = f.Value.scalar
			}
		}
	case KindSequence:
		for i, e := range v.seq {
			flattenInto(e, prefix+"["+strconv.Itoa(i)+"]", out)
		}
	default:
		out[prefix] = v.scalar
	}
}
