package session

import (
	"errors"
	"fmt"

	"github.com/ganot/sitesync/internal/transport"
)

var (
	// ErrNotAuthenticated indicates there is no usable token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden indicates the tenant is not one of the user's memberships.
	ErrForbidden = fmt.Errorf("tenant not among memberships: %w", transport.ErrForbidden)
	// ErrInvalidTransition indicates the operation isn't allowed from the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
)
