// Package rbac resolves admin permissions from their dashboard role.
package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/desa-digital/panel-desa/internal/shared"
)

// ErrUnknownRole indicates the session carries a role outside shared.Roles.
var ErrUnknownRole = errors.New("rbac: unknown role")

// Service maps roles to permissions.
type Service struct{}

// NewService constructs a Service.
func NewService() *Service {
	return &Service{}
}

// EffectivePermissions returns the permissions granted to role.
func (s *Service) EffectivePermissions(ctx context.Context, role string) ([]string, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !shared.KnownRole(role) {
		return nil, ErrUnknownRole
	}
	return shared.RolePermissions(role), nil
}
