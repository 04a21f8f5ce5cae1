package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for gateway client operations.
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a resource already exists.
	ErrDuplicate = errors.New("resource already exists")
)

// Problem is an RFC 9457 problem document as returned by the gateway's
// control plane and data plane error paths.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s (status %d): %s", p.Title, p.Status, p.Detail)
	}
	return fmt.Sprintf("%s (status %d)", p.Title, p.Status)
}
