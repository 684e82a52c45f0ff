package rfi

import (
	"encoding/json"

	"github.com/ganot/sitesync/internal/decode"
)

const kind = "rfi"

type wireEnvelope struct {
	RFIs json.RawMessage `json:"rfis"`
}

type wireRFI struct {
	ID          *int            `json:"id"`
	ProjectID   *int            `json:"projectId"`
	Number      json.RawMessage `json:"number"`
	Subject     *string         `json:"subject"`
	Title       *string         `json:"title"`
	Question    *string         `json:"question"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	DueDate     *string         `json:"dueDate"`
	CreatedAt   *string         `json:"createdAt"`
	AssignedTo  json.RawMessage `json:"assignedTo"`
	Attachments json.RawMessage `json:"attachments"`
	Responses   json.RawMessage `json:"responses"`
}

type wireUser struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type wireAttachment struct {
	ID       *int    `json:"id"`
	FileName *string `json:"fileName"`
	Name     *string `json:"name"`
	URL      *string `json:"url"`
}

type wireResponse struct {
	ID          *int            `json:"id"`
	Body        *string         `json:"body"`
	Content     *string         `json:"content"`
	Author      json.RawMessage `json:"author"`
	CreatedAt   *string         `json:"createdAt"`
	Official    *bool           `json:"isOfficial"`
	Attachments json.RawMessage `json:"attachments"`
}

// DecodeList decodes the GET /rfis body, {"rfis": [...]}.
func DecodeList(raw []byte, projectID int) ([]RFI, error) {
	var env wireEnvelope
	if err := decode.Object(kind, "$", raw, &env); err != nil {
		return nil, err
	}
	if env.RFIs == nil {
		return nil, decode.Missing(kind, "$.rfis")
	}
	elems, err := decode.Elements(kind, "$.rfis", env.RFIs)
	if err != nil {
		return nil, err
	}
	out := make([]RFI, 0, len(elems))
	for i, elem := range elems {
		r, err := Decode(elem, decode.Path("$.rfis", i), projectID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Decode decodes one RFI at path.
func Decode(raw json.RawMessage, path string, projectID int) (RFI, error) {
	var w wireRFI
	if err := decode.Object(kind, path, raw, &w); err != nil {
		return RFI{}, err
	}
	if w.ID == nil {
		return RFI{}, decode.Missing(kind, decode.Path(path, "id"))
	}
	number, ok := decode.Text(w.Number)
	if !ok {
		return RFI{}, decode.Missing(kind, decode.Path(path, "number"))
	}
	if w.ProjectID != nil {
		projectID = *w.ProjectID
	}
	subject := decode.Deref(w.Subject)
	if subject == "" {
		subject = decode.Deref(w.Title)
	}
	return RFI{
		ID:          *w.ID,
		ProjectID:   projectID,
		Number:      number,
		Subject:     subject,
		Question:    decode.Deref(w.Question),
		Status:      decode.Deref(w.Status),
		Priority:    decode.Deref(w.Priority),
		DueDate:     decode.Deref(w.DueDate),
		CreatedAt:   decode.Deref(w.CreatedAt),
		AssignedTo:  personName(w.AssignedTo),
		Attachments: decode.Each(w.Attachments, decodeAttachment),
		Responses:   decode.Each(w.Responses, decodeResponse),
	}, nil
}

// personName accepts either a plain string or a user object.
func personName(raw json.RawMessage) string {
	if s, ok := decode.Text(raw); ok {
		return s
	}
	var u wireUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return ""
	}
	if name := decode.Deref(u.Name); name != "" {
		return name
	}
	return decode.Deref(u.Email)
}

func decodeAttachment(raw json.RawMessage) (Attachment, error) {
	var w wireAttachment
	if err := decode.Object(kind, "attachment", raw, &w); err != nil {
		return Attachment{}, err
	}
	if w.ID == nil {
		return Attachment{}, decode.Missing(kind, "attachment.id")
	}
	name := decode.Deref(w.FileName)
	if name == "" {
		name = decode.Deref(w.Name)
	}
	return Attachment{ID: *w.ID, FileName: name, URL: decode.Deref(w.URL)}, nil
}

func decodeResponse(raw json.RawMessage) (Response, error) {
	var w wireResponse
	if err := decode.Object(kind, "response", raw, &w); err != nil {
		return Response{}, err
	}
	if w.ID == nil {
		return Response{}, decode.Missing(kind, "response.id")
	}
	body := decode.Deref(w.Body)
	if body == "" {
		body = decode.Deref(w.Content)
	}
	return Response{
		ID:          *w.ID,
		Body:        body,
		Author:      personName(w.Author),
		CreatedAt:   decode.Deref(w.CreatedAt),
		Official:    decode.Deref(w.Official),
		Attachments: decode.Each(w.Attachments, decodeAttachment),
	}, nil
}
