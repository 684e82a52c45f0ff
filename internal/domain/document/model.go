package document

import "github.com/ganot/sitesync/internal/decode"

// Document is a file in a project's document register.
type Document struct {
	ID        int        `json:"id"`
	ProjectID int        `json:"projectId"`
	Name      string     `json:"name"`
	Folder    string     `json:"folder,omitempty"`
	Revisions []Revision `json:"revisions"`
}

// Revision is one uploaded version of a document.
type Revision struct {
	ID            int                     `json:"id"`
	VersionNumber int                     `json:"versionNumber"`
	Status        decode.Optional[string] `json:"status"`
	FileName      string                  `json:"fileName,omitempty"`
	FileType      string                  `json:"fileType,omitempty"`
	URL           string                  `json:"url,omitempty"`
	UploadedAt    string                  `json:"uploadedAt,omitempty"`
}

// Latest returns the revision with the highest version number.
func (d Document) Latest() (Revision, bool) {
	if len(d.Revisions) == 0 {
		return Revision{}, false
	}
	latest := d.Revisions[0]
	for _, rev := range d.Revisions[1:] {
		if rev.VersionNumber > latest.VersionNumber {
			latest = rev
		}
	}
	return latest, true
}
