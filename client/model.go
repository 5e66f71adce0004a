package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// maxErrBodySize caps the amount of response body kept
// in an [UnexpectedStatusError].
const maxErrBodySize = 4 << 10 // 4KB

// Values of the stat field of a response envelope.
const (
	StatOK    = "ok"
	StatError = "error"
)

var (
	// ErrInvalidConfig marks configuration problems detected before any
	// network I/O: a missing base URL, missing credentials or defaults that
	// cannot be encoded.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrEmptyPath is returned by [Client.Call] for an empty endpoint path.
	ErrEmptyPath = errors.New("api path must not be empty")
	// ErrAPIResponse is the sentinel error wrapped by [APIError].
	ErrAPIResponse = errors.New("api error response")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrMalformedResponse is wrapped by [UnexpectedStatusError] when a
	// non-error status carries a body that is not a stat envelope.
	ErrMalformedResponse = errors.New("malformed response")
)

// Response is a decoded API response envelope.
type Response map[string]any

// Stat returns the envelope's stat field.
func (r Response) Stat() string {
	s, _ := r["stat"].(string)
	return s
}

// APIError is returned when the API answers with stat "error".
type APIError struct {
	// Code is the numeric API error code.
	Code int
	// Name is the short machine-readable error, e.g. "invalid_argument".
	Name string
	// Description is the human-readable message.
	Description string
	// StatusCode is the HTTP status the error arrived with.
	StatusCode int
	// Response is the full decoded response body.
	Response Response
}

func newAPIError(status int, env Response) *APIError {
	e := APIError{
		Code:       toInt(env["code"]),
		StatusCode: status,
		Response:   env,
	}
	e.Name, _ = env["error"].(string)

	if desc, ok := env["error_description"].(string); ok {
		e.Description = desc
	} else {
		e.Description, _ = env["message"].(string)
	}

	return &e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Code, e.Name, e.Description)
}

func (e *APIError) Unwrap() error {
	return ErrAPIResponse
}

// UnexpectedStatusError is returned when the HTTP status code can not carry
// a successful response, or when the body is not a valid envelope.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func newStatusError(status int, body []byte, err error) *UnexpectedStatusError {
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		err = errors.Join(err, ErrAuthFailure)
	}

	return &UnexpectedStatusError{
		StatusCode: status,
		Body:       string(body),
		Err:        err,
	}
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, _ := n.Float64()
			return int(f)
		}
		return int(i)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	default:
		return 0
	}
}
