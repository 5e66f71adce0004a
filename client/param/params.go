package param

import (
	"fmt"
	"maps"
)

// Params is a parameter set keyed by parameter name.
type Params map[string]Value

// From converts every value of m with [Of].
func From(m map[string]any) (Params, error) {
	p := make(Params, len(m))
	for k, x := range m {
		v, err := Of(x)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		p[k] = v
	}
	return p, nil
}

// Merge returns a new set holding defaults overlaid with call. Null values
// in call never replace a default: they are treated as if the key had not
// been passed at all.
func Merge(defaults, call Params) Params {
	out := maps.Clone(defaults)
	if out == nil {
		out = make(Params, len(call))
	}
	for k, v := range call {
		if v.IsNull() {
			continue
		}
		out[k] = v
	}
	return out
}

// Encode returns the wire form of p. Null values are omitted.
func (p Params) Encode() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		if wire, ok := v.Encode(); ok {
			out[k] = wire
		}
	}
	return out
}
