// Package resource names the units the cache and the sync coordinator work
// in: a resource kind, optionally scoped to a project.
package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a fetchable, cacheable collection.
type Kind string

const (
	Projects        Kind = "projects"
	Drawings        Kind = "drawings"
	RFIs            Kind = "rfis"
	Forms           Kind = "forms"
	FormSubmissions Kind = "formSubmissions"
	Documents       Kind = "documents"
)

// All lists every kind in a stable order.
var All = []Kind{Projects, Drawings, RFIs, Forms, FormSubmissions, Documents}

// ProjectKinds lists the kinds that are scoped to a single project.
var ProjectKinds = []Kind{Drawings, RFIs, Forms, FormSubmissions, Documents}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range All {
		if k == known {
			return true
		}
	}
	return false
}

// ProjectScoped is false only for the project list itself.
func (k Kind) ProjectScoped() bool {
	return k != Projects
}

// ParseKind converts a user-supplied name into a Kind.
func ParseKind(name string) (Kind, error) {
	for _, known := range All {
		if strings.EqualFold(name, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", name)
}

// Key addresses one cache entry. ProjectID is always zero for Projects.
type Key struct {
	Kind      Kind
	ProjectID int
}

// NewKey builds a key, dropping the project id for unscoped kinds.
func NewKey(kind Kind, projectID int) Key {
	if !kind.ProjectScoped() {
		projectID = 0
	}
	return Key{Kind: kind, ProjectID: projectID}
}

func (k Key) String() string {
	if !k.Kind.ProjectScoped() {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s/%d", k.Kind, k.ProjectID)
}

// FileName is the on-disk name of the entry: projects.json, or
// <kind>_<projectId>.json for project-scoped kinds.
func (k Key) FileName() string {
	if !k.Kind.ProjectScoped() {
		return string(k.Kind) + ".json"
	}
	return fmt.Sprintf("%s_%d.json", k.Kind, k.ProjectID)
}

// ParseFileName is the inverse of Key.FileName.
func ParseFileName(name string) (Key, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return Key{}, false
	}
	if base == string(Projects) {
		return Key{Kind: Projects}, true
	}
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return Key{}, false
	}
	kind := Kind(base[:idx])
	if !kind.Valid() || !kind.ProjectScoped() {
		return Key{}, false
	}
	projectID, err := strconv.Atoi(base[idx+1:])
	if err != nil || projectID < 0 {
		return Key{}, false
	}
	return Key{Kind: kind, ProjectID: projectID}, true
}
