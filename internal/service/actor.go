package service

import (
	"estatehub/internal/permission"

	"github.com/google/uuid"
)

// Actor is the authenticated admin behind a request.
type Actor struct {
	permission.Principal
	SessionID uuid.UUID
	IP        string
}

// ClientInfo describes the device a login came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}
