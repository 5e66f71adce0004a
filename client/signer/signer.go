package signer

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Reserved parameter names consumed by the signer.
const (
	ParamAccessToken  = "access_token"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
)

// DateLayout is the format of the signed timestamp and of the Date header.
const DateLayout = "2006-01-02 15:04:05"

// ErrMissingCredentials is returned when neither an access token nor a
// complete client id and secret pair is available.
var ErrMissingCredentials = errors.New("missing credentials: need access_token or client_id and client_secret")

// Signed holds the result of signing one request.
type Signed struct {
	// Header holds Authorization and, in HMAC mode, Date.
	Header http.Header
	// Params is the parameter set with the reserved keys removed.
	Params map[string]string
}

// Signer produces authentication headers. The zero value is ready to use and
// reads the current time from the system clock.
type Signer struct {
	now func() time.Time
}

// New returns a Signer reading time from now. A nil now uses [time.Now].
func New(now func() time.Time) *Signer {
	return &Signer{now: now}
}

// Sign authenticates a call to path. params is not modified.
func (s *Signer) Sign(path string, params map[string]string) (Signed, error) {
	reduced := maps.Clone(params)
	if reduced == nil {
		reduced = make(map[string]string)
	}

	accessToken := pop(reduced, ParamAccessToken)
	clientID := pop(reduced, ParamClientID)
	clientSecret := pop(reduced, ParamClientSecret)

	header := make(http.Header)
	if accessToken != "" {
		header.Set("Authorization", "OAuth "+accessToken)
		return Signed{Header: header, Params: reduced}, nil
	}

	if clientID == "" || clientSecret == "" {
		return Signed{}, ErrMissingCredentials
	}

	timestamp := s.clock().UTC().Format(DateLayout)
	digest := Signature(clientSecret, Base(path, timestamp, reduced))

	header.Set("Date", timestamp)
	header.Set("Authorization", "Signature "+clientID+":"+digest)

	return Signed{Header: header, Params: reduced}, nil
}

func (s *Signer) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Base builds the string that gets signed:
//
//	<path>\n<timestamp>\n[<k1>=<v1>\n<k2>=<v2>\n...]
//
// The pairs are ordered by their formatted "key=value" text, not by key.
// The remote service verifies against exactly this order.
func Base(path, timestamp string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(timestamp)
	b.WriteByte('\n')

	if len(params) == 0 {
		return b.String()
	}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	slices.Sort(pairs)

	for _, p := range pairs {
		b.WriteString(p)
		b.WriteByte('\n')
	}

	return b.String()
}

// Signature returns base64(HMAC-SHA1(secret, base)).
func Signature(secret, base string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func pop(m map[string]string, key string) string {
	v := m[key]
	delete(m, key)
	return v
}
