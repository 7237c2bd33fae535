package tenant

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SwitchHeader carries the tenant a super-admin wants to act on.
const SwitchHeader = "X-Tenant-Id"

// SwitchFromRequest reads the tenant-switch header. An empty header yields uuid.Nil and no error.
func SwitchFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(SwitchHeader))
	if raw == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse %s header: %w", SwitchHeader, err)
	}
	return id, nil
}
