// Package param implements the wire encoding of Capture API call parameters.
//
// Every parameter is represented as a [Value], a tagged variant holding one of
// null, string, bool, number, list or map. Arbitrary Go values enter through
// [Of], which rejects anything it cannot represent with [ErrUnsupportedType]:
//
//	v, err := param.Of(map[string]any{"foo": true})
//	wire, ok := v.Encode() // `{"foo":true}`, true
//
// Encoding follows the API's conventions:
//
//   - lists and maps become compact JSON text
//   - booleans become "true" or "false"
//   - strings and numbers pass through as text
//   - null values are dropped from the parameter set entirely
//
// [Params.Encode] applies these rules to a whole parameter set, returning the
// encoded key/value pairs ready to be signed and form-encoded.
package param
