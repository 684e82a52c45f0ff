// Package activity keeps a local history of what the client did: syncs,
// session changes, offline toggles and cache clears.
package activity

import "time"

// Type represents the type of activity event
type Type string

const (
	TypeLogin           Type = "login"
	TypeLogout          Type = "logout"
	TypeTenantSelected  Type = "tenant_selected"
	TypeSessionExpired  Type = "session_expired"
	TypeSyncCompleted   Type = "sync_completed"
	TypeSyncFailed      Type = "sync_failed"
	TypeOfflineEnabled  Type = "offline_enabled"
	TypeOfflineDisabled Type = "offline_disabled"
	TypeCacheCleared    Type = "cache_cleared"
)

// Entry is one event in the activity log. ProjectID is zero for events that
// aren't about a single project.
type Entry struct {
	ID        int64     `json:"id"`
	TenantID  int       `json:"tenant_id"`
	ProjectID int       `json:"project_id,omitempty"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}
