package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

func sanitizedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

// idParam returns the {id} route parameter.
func idParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

// requestID returns the id chi's RequestID middleware attached to the request.
func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
