package document

import (
	"encoding/json"

	"github.com/ganot/sitesync/internal/decode"
)

const kind = "document"

type wireDocument struct {
	ID        *int            `json:"id"`
	ProjectID *int            `json:"projectId"`
	Name      *string         `json:"name"`
	Title     *string         `json:"title"`
	Folder    json.RawMessage `json:"folder"`
	Revisions json.RawMessage `json:"revisions"`
}

type wireFolder struct {
	Name *string `json:"name"`
}

type wireRevision struct {
	ID            *int    `json:"id"`
	VersionNumber *int    `json:"versionNumber"`
	Status        *string `json:"status"`
	FileName      *string `json:"fileName"`
	FileType      *string `json:"fileType"`
	URL           *string `json:"fileUrl"`
	UploadedAt    *string `json:"createdAt"`
}

// DecodeList decodes the GET /documents body, a bare array.
func DecodeList(raw []byte, projectID int) ([]Document, error) {
	return decode.All(kind, raw, func(elem json.RawMessage, path string) (Document, error) {
		return Decode(elem, path, projectID)
	})
}

// Decode decodes one document at path.
func Decode(raw json.RawMessage, path string, projectID int) (Document, error) {
	var w wireDocument
	if err := decode.Object(kind, path, raw, &w); err != nil {
		return Document{}, err
	}
	if w.ID == nil {
		return Document{}, decode.Missing(kind, decode.Path(path, "id"))
	}
	name := decode.Deref(w.Name)
	if w.Name == nil {
		if w.Title == nil {
			return Document{}, decode.Missing(kind, decode.Path(path, "name"))
		}
		name = *w.Title
	}
	if w.ProjectID != nil {
		projectID = *w.ProjectID
	}
	return Document{
		ID:        *w.ID,
		ProjectID: projectID,
		Name:      name,
		Folder:    folderName(w.Folder),
		Revisions: decode.Each(w.Revisions, decodeRevision),
	}, nil
}

// folderName accepts a folder path string or a {"name": ...} object.
func folderName(raw json.RawMessage) string {
	if s, ok := decode.Text(raw); ok {
		return s
	}
	var f wireFolder
	if err := json.Unmarshal(raw, &f); err != nil {
		return ""
	}
	return decode.Deref(f.Name)
}

func decodeRevision(raw json.RawMessage) (Revision, error) {
	var w wireRevision
	if err := decode.Object(kind, "revision", raw, &w); err != nil {
		return Revision{}, err
	}
	if w.ID == nil {
		return Revision{}, decode.Missing(kind, "revision.id")
	}
	if w.VersionNumber == nil {
		return Revision{}, decode.Missing(kind, "revision.versionNumber")
	}
	return Revision{
		ID:            *w.ID,
		VersionNumber: *w.VersionNumber,
		Status:        decode.FromPtr(w.Status),
		FileName:      decode.Deref(w.FileName),
		FileType:      decode.Deref(w.FileType),
		URL:           decode.Deref(w.URL),
		UploadedAt:    decode.Deref(w.UploadedAt),
	}, nil
}
