package project

// Project is a construction project visible to the selected tenant.
type Project struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"projectNumber,omitempty"`
	Address   string `json:"address,omitempty"`
	Status    string `json:"status,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// ProjectSummary is the subset of a project shown in pickers.
type ProjectSummary struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Number string `json:"projectNumber,omitempty"`
}

// Summary returns the picker view of p.
func (p Project) Summary() ProjectSummary {
	return ProjectSummary{ID: p.ID, Name: p.Name, Number: p.Number}
}
