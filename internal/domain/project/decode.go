package project

import (
	"encoding/json"

	"github.com/ganot/sitesync/internal/decode"
)

const kind = "project"

type wireProject struct {
	ID            *int    `json:"id"`
	Name          *string `json:"name"`
	ProjectNumber *string `json:"projectNumber"`
	Address       *string `json:"address"`
	Location      *string `json:"location"`
	Status        *string `json:"status"`
	ImageURL      *string `json:"imageUrl"`
	StartDate     *string `json:"startDate"`
	EndDate       *string `json:"endDate"`
}

// DecodeList decodes the GET /projects body, a bare array.
func DecodeList(raw []byte) ([]Project, error) {
	return decode.All(kind, raw, Decode)
}

// Decode decodes one project at path.
func Decode(raw json.RawMessage, path string) (Project, error) {
	var w wireProject
	if err := decode.Object(kind, path, raw, &w); err != nil {
		return Project{}, err
	}
	if w.ID == nil {
		return Project{}, decode.Missing(kind, decode.Path(path, "id"))
	}
	if w.Name == nil {
		return Project{}, decode.Missing(kind, decode.Path(path, "name"))
	}
	address := decode.Deref(w.Address)
	if address == "" {
		address = decode.Deref(w.Location)
	}
	return Project{
		ID:        *w.ID,
		Name:      *w.Name,
		Number:    decode.Deref(w.ProjectNumber),
		Address:   address,
		Status:    decode.Deref(w.Status),
		ImageURL:  decode.Deref(w.ImageURL),
		StartDate: decode.Deref(w.StartDate),
		EndDate:   decode.Deref(w.EndDate),
	}, nil
}
