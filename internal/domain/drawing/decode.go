package drawing

import (
	"encoding/json"

	"github.com/ganot/sitesync/internal/decode"
)

const kind = "drawing"

type wireEnvelope struct {
	Drawings json.RawMessage `json:"drawings"`
}

type wireDrawing struct {
	ID         *int            `json:"id"`
	ProjectID  *int            `json:"projectId"`
	Number     *string         `json:"number"`
	Title      *string         `json:"title"`
	Discipline *string         `json:"discipline"`
	Revisions  json.RawMessage `json:"revisions"`
}

type wireRevision struct {
	ID            *int            `json:"id"`
	VersionNumber *int            `json:"versionNumber"`
	Status        *string         `json:"status"`
	IssuedAt      *string         `json:"issuedAt"`
	CreatedAt     *string         `json:"createdAt"`
	Files         json.RawMessage `json:"files"`
}

type wireFile struct {
	ID       *int    `json:"id"`
	FileName *string `json:"fileName"`
	FileType *string `json:"fileType"`
	URL      *string `json:"url"`
}

// DecodeList decodes the GET /drawings body, {"drawings": [...]}. Drawings
// without an explicit projectId inherit projectID.
func DecodeList(raw []byte, projectID int) ([]Drawing, error) {
	var env wireEnvelope
	if err := decode.Object(kind, "$", raw, &env); err != nil {
		return nil, err
	}
	if env.Drawings == nil {
		return nil, decode.Missing(kind, "$.drawings")
	}
	elems, err := decode.Elements(kind, "$.drawings", env.Drawings)
	if err != nil {
		return nil, err
	}
	out := make([]Drawing, 0, len(elems))
	for i, elem := range elems {
		d, err := Decode(elem, decode.Path("$.drawings", i), projectID)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Decode decodes one drawing at path.
func Decode(raw json.RawMessage, path string, projectID int) (Drawing, error) {
	var w wireDrawing
	if err := decode.Object(kind, path, raw, &w); err != nil {
		return Drawing{}, err
	}
	if w.ID == nil {
		return Drawing{}, decode.Missing(kind, decode.Path(path, "id"))
	}
	if w.Number == nil {
		return Drawing{}, decode.Missing(kind, decode.Path(path, "number"))
	}
	if w.ProjectID != nil {
		projectID = *w.ProjectID
	}
	return Drawing{
		ID:         *w.ID,
		ProjectID:  projectID,
		Number:     *w.Number,
		Title:      decode.Deref(w.Title),
		Discipline: decode.Deref(w.Discipline),
		Revisions:  decode.Each(w.Revisions, decodeRevision),
	}, nil
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
	issued := decode.Deref(w.IssuedAt)
	if issued == "" {
		issued = decode.Deref(w.CreatedAt)
	}
	return Revision{
		ID:            *w.ID,
		VersionNumber: *w.VersionNumber,
		Status:        decode.FromPtr(w.Status),
		IssuedAt:      issued,
		Files:         decode.Each(w.Files, decodeFile),
	}, nil
}

func decodeFile(raw json.RawMessage) (File, error) {
	var w wireFile
	if err := decode.Object(kind, "file", raw, &w); err != nil {
		return File{}, err
	}
	if w.ID == nil {
		return File{}, decode.Missing(kind, "file.id")
	}
	return File{
		ID:       *w.ID,
		FileName: decode.Deref(w.FileName),
		FileType: decode.Deref(w.FileType),
		URL:      decode.Deref(w.URL),
	}, nil
}
