package assist

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates the model returned something that is
// not a parseable detail view.
var ErrMalformedResponse = errors.New("malformed model response")

// DetailView is the structured assistance payload. The model owns the
// inner shape; the service only augments it with protocol and request
// context before returning it.
type DetailView map[string]any

// ParseDetailView decodes raw model output into a detail view.
func ParseDetailView(raw string) (DetailView, error) {
	var view DetailView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(view) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedResponse)
	}
	return view, nil
}

// clone returns a shallow copy so cached views can be annotated
// without mutating the stored envelope.
func (v DetailView) clone() DetailView {
	out := make(DetailView, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
