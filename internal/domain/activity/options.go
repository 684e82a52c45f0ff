package activity

// ListOptions filters a listing. Zero values match everything.
type ListOptions struct {
	TenantID  int
	ProjectID int
	Type      *Type
	Limit     int
}
