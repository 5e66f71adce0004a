// Package capturetest provides an in-process fake of the Capture API for
// tests. The server verifies OAuth and HMAC signatures exactly like the real
// service, records every request and answers with stat envelopes returned by
// registered handlers.
package capturetest

import (
	"crypto/hmac"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/adamwoolhether/capture/client"
	"github.com/adamwoolhether/capture/client/signer"
)

// Request is a call received by the [Server].
type Request struct {
	ID     string
	Path   string
	Header http.Header
	Params url.Values
}

// Handler answers a verified call with an HTTP status and a body. A body of
// type string or []byte is written verbatim; anything else is JSON encoded.
type Handler func(r Request) (status int, body any)

// Server is a fake Capture API.
type Server struct {
	*httptest.Server
	creds client.Credentials

	mu       sync.Mutex
	handlers map[string]Handler
	requests []Request
}

// NewServer starts a Server accepting calls signed with creds. Zero creds
// disable signature verification.
func NewServer(creds client.Credentials) *Server {
	s := &Server{
		creds:    creds,
		handlers: make(map[string]Handler),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))

	return s
}

// Handle registers h for the endpoint at path.
func (s *Server) Handle(path string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[path] = h
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recent call.
func (s *Server) Last() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// OK returns a success envelope carrying fields.
func OK(fields map[string]any) map[string]any {
	out := map[string]any{"stat": client.StatOK}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Error returns an error envelope.
func Error(code int, name, description string) map[string]any {
	return map[string]any{
		"stat":              client.StatError,
		"code":              code,
		"error":             name,
		"error_description": description,
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.write(w, r, http.StatusBadRequest, Error(100, "invalid_form", err.Error()))
		return
	}

	req := Request{
		ID:     uuid.NewString(),
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Params: r.PostForm,
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	h, ok := s.handlers[req.Path]
	s.mu.Unlock()

	w.Header().Set("X-Request-Id", req.ID)

	if !ok {
		s.write(w, r, http.StatusNotFound, "<html><body>Not Found</body></html>")
		return
	}

	if !s.authorized(req) {
		s.write(w, r, http.StatusUnauthorized, Error(402, "invalid_auth", "the signature of the request was invalid"))
		return
	}

	status, body := h(req)
	s.write(w, r, status, body)
}

func (s *Server) authorized(req Request) bool {
	auth := req.Header.Get("Authorization")

	switch {
	case s.creds.AccessToken != "":
		return auth == "OAuth "+s.creds.AccessToken

	case s.creds.ClientID != "":
		id, digest, ok := strings.Cut(strings.TrimPrefix(auth, "Signature "), ":")
		if !ok || !strings.HasPrefix(auth, "Signature ") || id != s.creds.ClientID {
			return false
		}

		params := make(map[string]string, len(req.Params))
		for k := range req.Params {
			params[k] = req.Params.Get(k)
		}

		exp := signer.Signature(s.creds.ClientSecret, signer.Base(req.Path, req.Header.Get("Date"), params))
		return hmac.Equal([]byte(exp), []byte(digest))

	default:
		return true
	}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, body any) {
	var b []byte
	switch v := body.(type) {
	case string:
		w.Header().Set("Content-Type", "text/html")
		b = []byte(v)
	case []byte:
		b = v
	default:
		w.Header().Set("Content-Type", "application/json")
		var err error
		if b, err = json.Marshal(v); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.WriteHeader(status)
		w.Write(b)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(status)
	zw := gzip.NewWriter(w)
	zw.Write(b)
	zw.Close()
}
