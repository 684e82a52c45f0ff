package form

// Form is a form template the current user may fill in on a project.
type Form struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field describes one input of a form template.
type Field struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Submission is a filled-in form.
type Submission struct {
	ID          int                      `json:"id"`
	ProjectID   int                      `json:"projectId"`
	FormID      int                      `json:"formId"`
	FormName    string                   `json:"formName,omitempty"`
	Status      string                   `json:"status,omitempty"`
	SubmittedBy string                   `json:"submittedBy,omitempty"`
	SubmittedAt string                   `json:"submittedAt,omitempty"`
	Responses   map[string]ResponseValue `json:"responses"`
}
