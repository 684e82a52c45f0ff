package rfi

// RFI is a request for information raised on a project.
type RFI struct {
	ID          int          `json:"id"`
	ProjectID   int          `json:"projectId"`
	Number      string       `json:"number"`
	Subject     string       `json:"subject"`
	Question    string       `json:"question,omitempty"`
	Status      string       `json:"status,omitempty"`
	Priority    string       `json:"priority,omitempty"`
	DueDate     string       `json:"dueDate,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	Attachments []Attachment `json:"attachments"`
	Responses   []Response   `json:"responses"`
}

// Attachment is a file linked to an RFI or a response.
type Attachment struct {
	ID       int    `json:"id"`
	FileName string `json:"fileName"`
	URL      string `json:"url,omitempty"`
}

// Response is an answer posted to an RFI.
type Response struct {
	ID          int          `json:"id"`
	Body        string       `json:"body"`
	Author      string       `json:"author,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	Official    bool         `json:"official,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Open reports whether the RFI still awaits an answer.
func (r RFI) Open() bool {
	switch r.Status {
	case "closed", "answered", "void":
		return false
	default:
		return true
	}
}
