package drawing

import "github.com/ganot/sitesync/internal/decode"

// Drawing is a sheet in a project's drawing set.
type Drawing struct {
	ID         int        `json:"id"`
	ProjectID  int        `json:"projectId"`
	Number     string     `json:"number"`
	Title      string     `json:"title,omitempty"`
	Discipline string     `json:"discipline,omitempty"`
	Revisions  []Revision `json:"revisions"`
}

// Revision is one versioned issue of a drawing.
type Revision struct {
	ID            int                     `json:"id"`
	VersionNumber int                     `json:"versionNumber"`
	Status        decode.Optional[string] `json:"status"`
	IssuedAt      string                  `json:"issuedAt,omitempty"`
	Files         []File                  `json:"files"`
}

// File is a downloadable rendition of a revision.
type File struct {
	ID       int    `json:"id"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Latest returns the revision with the highest version number.
func (d Drawing) Latest() (Revision, bool) {
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
