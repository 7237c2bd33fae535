package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	TypeValidation   = "https://posbill.app/problems/validation-error"
	TypeNotFound     = "https://posbill.app/problems/not-found"
	TypeConflict     = "https://posbill.app/problems/conflict"
	TypeInternal     = "https://posbill.app/problems/internal-error"
	TypeNoTenant     = "https://posbill.app/problems/tenant-required"
	TypeUnauthorized = "https://posbill.app/problems/unauthorized"
)

// NoTenant is returned when a tenant-scoped resource is called without a bound tenant, which only
// happens for super-admins that did not send X-Tenant-Id.
func NoTenant() Details {
	return New(http.StatusBadRequest, "Tenant required", "select a tenant with the X-Tenant-Id header", TypeNoTenant, nil)
}

// Details is an RFC 7807 problem body.
type Details struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// New builds a problem body, copying field errors so callers can keep mutating theirs.
func New(status int, title, detail, problemType string, fieldErrors map[string][]string) Details {
	d := Details{Type: problemType, Title: title, Status: status, Detail: detail}
	if len(fieldErrors) > 0 {
		d.Errors = make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			d.Errors[field] = append([]string(nil), messages...)
		}
	}
	return d
}

// Write renders d as application/problem+json.
func Write(w http.ResponseWriter, d Details) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(d.Status)
	_ = json.NewEncoder(w).Encode(d)
}

// JSON renders v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrInvalidBody is returned by Decode for empty or malformed payloads.
var ErrInvalidBody = errors.New("invalid request body")

// Decode reads a single JSON object into v, rejecting unknown fields and bodies over 1 MiB.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: body is required", ErrInvalidBody)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body is required", ErrInvalidBody)
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

// BadBody writes the 400 problem for a Decode failure.
func BadBody(w http.ResponseWriter, err error) {
	Write(w, New(http.StatusBadRequest, "Invalid request body", err.Error(), TypeValidation, nil))
}
