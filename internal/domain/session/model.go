package session

import "time"

// State is the position in the login state machine.
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticated
	StateTenantSelected
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateAuthenticated:
		return "authenticated"
	case StateTenantSelected:
		return "tenant_selected"
	default:
		return "unknown"
	}
}

// Tenant is an organisational account.
type Tenant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Membership links a user to a tenant.
type Membership struct {
	Tenant Tenant `json:"tenant"`
	Role   string `json:"role,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID          int          `json:"id"`
	Email       string       `json:"email,omitempty"`
	Name        string       `json:"name,omitempty"`
	Memberships []Membership `json:"tenants"`
}

// HasTenant reports whether tenantID is one of the user's memberships.
func (u User) HasTenant(tenantID int) bool {
	for _, m := range u.Memberships {
		if m.Tenant.ID == tenantID {
			return true
		}
	}
	return false
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State     State
	Token     string
	TenantID  int
	Tenants   []Membership
	User      *User
	LastError string
	// Epoch increases on every token change, letting callers detect that a
	// response belongs to an earlier session.
	Epoch     uint64
	ChangedAt time.Time
}

// Credentials is what a fetch needs: a tenant-scoped token.
type Credentials struct {
	Token    string
	TenantID int
	Epoch    uint64
}

// StoredCredentials is the persisted form of a selected-tenant session.
type StoredCredentials struct {
	Token    string
	TenantID int
	User     *User
}

// LoginResult describes where Login left the session.
type LoginResult struct {
	Snapshot             Snapshot
	NeedsTenantSelection bool
}
