package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ordertrack/internal/extract"
)

// maxBodyBytes bounds webhook payload size.
const maxBodyBytes = 1 << 20

// parseBody decodes a webhook delivery into a payload mapping. JSON objects
// pass through; JSON arrays and scalars are wrapped under "items";
// form-encoded bodies become flat mappings with single values unwrapped;
// anything else is preserved verbatim under "raw_body" so the event is still
// auditable.
func parseBody(r *http.Request) (extract.Value, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return extract.Value{}, eris.Wrap(err, "server: read body")
	}

	ctype := strings.ToLower(r.Header.Get("Content-Type"))

	switch {
	case strings.Contains(ctype, "application/json"):
		if len(body) == 0 {
			return extract.Map(), nil
		}
		v, err := extract.FromJSON(body)
		if err != nil {
			return extract.Value{}, err
		}
		return v.AsMap(), nil

	case strings.Contains(ctype, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return extract.Value{}, eris.Wrap(err, "server: parse form body")
		}
		return formToValue(values), nil

	default:
		return extract.Map(extract.Field{
			Key:   "raw_body",
			Value: extract.Scalar(string(body)),
		}), nil
	}
}

func formToValue(values url.Values) extract.Value {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	return extract.FromAny(out)
}
