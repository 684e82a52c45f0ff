package form

import (
	"encoding/json"

	"github.com/ganot/sitesync/internal/decode"
)

const (
	formKind       = "form"
	submissionKind = "form_submission"
)

type wireForm struct {
	ID          *int            `json:"id"`
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Fields      json.RawMessage `json:"fields"`
}

type wireField struct {
	ID       json.RawMessage `json:"id"`
	Label    *string         `json:"label"`
	Type     *string         `json:"type"`
	Required *bool           `json:"required"`
	Options  []string        `json:"options"`
}

type wireSubmission struct {
	ID          *int                       `json:"id"`
	ProjectID   *int                       `json:"projectId"`
	FormID      *int                       `json:"formId"`
	Form        *wireFormRef               `json:"form"`
	Status      *string                    `json:"status"`
	SubmittedBy *string                    `json:"submittedBy"`
	SubmittedAt *string                    `json:"submittedAt"`
	Responses   map[string]json.RawMessage `json:"responses"`
}

type wireFormRef struct {
	ID   *int    `json:"id"`
	Name *string `json:"name"`
}

// DecodeForms decodes the GET /forms/accessible body, a bare array.
func DecodeForms(raw []byte) ([]Form, error) {
	return decode.All(formKind, raw, DecodeForm)
}

// DecodeForm decodes one form template at path.
func DecodeForm(raw json.RawMessage, path string) (Form, error) {
	var w wireForm
	if err := decode.Object(formKind, path, raw, &w); err != nil {
		return Form{}, err
	}
	if w.ID == nil {
		return Form{}, decode.Missing(formKind, decode.Path(path, "id"))
	}
	if w.Name == nil {
		return Form{}, decode.Missing(formKind, decode.Path(path, "name"))
	}
	return Form{
		ID:          *w.ID,
		Name:        *w.Name,
		Description: decode.Deref(w.Description),
		Category:    decode.Deref(w.Category),
		Fields:      decode.Each(w.Fields, decodeField),
	}, nil
}

func decodeField(raw json.RawMessage) (Field, error) {
	var w wireField
	if err := decode.Object(formKind, "field", raw, &w); err != nil {
		return Field{}, err
	}
	id, ok := decode.Text(w.ID)
	if !ok {
		return Field{}, decode.Missing(formKind, "field.id")
	}
	return Field{
		ID:       id,
		Label:    decode.Deref(w.Label),
		Type:     decode.Deref(w.Type),
		Required: decode.Deref(w.Required),
		Options:  w.Options,
	}, nil
}

// DecodeSubmissions decodes the GET /forms/submissions body, a bare array.
func DecodeSubmissions(raw []byte, projectID int) ([]Submission, error) {
	return decode.All(submissionKind, raw, func(elem json.RawMessage, path string) (Submission, error) {
		return DecodeSubmission(elem, path, projectID)
	})
}

// DecodeSubmission decodes one submission at path. Response values whose
// shape no variant accepts are dropped.
func DecodeSubmission(raw json.RawMessage, path string, projectID int) (Submission, error) {
	var w wireSubmission
	if err := decode.Object(submissionKind, path, raw, &w); err != nil {
		return Submission{}, err
	}
	if w.ID == nil {
		return Submission{}, decode.Missing(submissionKind, decode.Path(path, "id"))
	}
	formID := w.FormID
	var formName string
	if w.Form != nil {
		if formID == nil {
			formID = w.Form.ID
		}
		formName = decode.Deref(w.Form.Name)
	}
	if formID == nil {
		return Submission{}, decode.Missing(submissionKind, decode.Path(path, "formId"))
	}
	if w.ProjectID != nil {
		projectID = *w.ProjectID
	}

	responses := make(map[string]ResponseValue, len(w.Responses))
	for field, value := range w.Responses {
		parsed, ok := ParseResponseValue(value)
		if !ok {
			continue
		}
		responses[field] = parsed
	}

	return Submission{
		ID:          *w.ID,
		ProjectID:   projectID,
		FormID:      *formID,
		FormName:    formName,
		Status:      decode.Deref(w.Status),
		SubmittedBy: decode.Deref(w.SubmittedBy),
		SubmittedAt: decode.Deref(w.SubmittedAt),
		Responses:   responses,
	}, nil
}
