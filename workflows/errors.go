package workflows

import (
	"errors"
	"fmt"
)

// Expected failure conditions. Callers branch on these to render a specific
// message rather than a generic 500.
var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrAlreadyApproved      = errors.New("application has already been approved")
	ErrAlreadyRejected      = errors.New("application has been rejected and cannot be approved")
	ErrNoContactEmail       = errors.New("application has no contact email")
	ErrEmailInUse           = errors.New("an account with this email already exists")
	ErrOrganisationNotFound = errors.New("organisation not found")
	ErrAlreadyMember        = errors.New("user is already a member of this organisation")
	ErrUserNotFound         = errors.New("user not found")
)

// ProviderError wraps a failed identity-provider call. The underlying error
// carries the provider's status code and raw body for diagnostics.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError is the most serious class: the local store failed after
// identity-provider effects were already committed, leaving cross-system
// state divergent. Admin UI surfaces these as "fix manually".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("local persistence %s failed after provider effects were committed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
