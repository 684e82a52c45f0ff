package coordinator

import (
	"context"

	"github.com/ganot/sitesync/internal/domain/document"
	"github.com/ganot/sitesync/internal/domain/drawing"
	"github.com/ganot/sitesync/internal/domain/form"
	"github.com/ganot/sitesync/internal/domain/project"
	"github.com/ganot/sitesync/internal/domain/rfi"
	"github.com/ganot/sitesync/internal/resource"
)

// Projects fetches the tenant's project list. emit receives the cached
// result (if any) and then the refreshed one; it may be nil.
func (c *Coordinator) Projects(ctx context.Context, emit func(Result[[]project.Project])) (Result[[]project.Project], error) {
	return fetch(ctx, c, resource.Projects, 0, project.DecodeList, emit)
}

// Drawings fetches a project's drawings.
func (c *Coordinator) Drawings(ctx context.Context, projectID int, emit func(Result[[]drawing.Drawing])) (Result[[]drawing.Drawing], error) {
	return fetch(ctx, c, resource.Drawings, projectID, func(raw []byte) ([]drawing.Drawing, error) {
		return drawing.DecodeList(raw, projectID)
	}, emit)
}

// RFIs fetches a project's RFIs.
func (c *Coordinator) RFIs(ctx context.Context, projectID int, emit func(Result[[]rfi.RFI])) (Result[[]rfi.RFI], error) {
	return fetch(ctx, c, resource.RFIs, projectID, func(raw []byte) ([]rfi.RFI, error) {
		return rfi.DecodeList(raw, projectID)
	}, emit)
}

// Forms fetches the form templates accessible in a project.
func (c *Coordinator) Forms(ctx context.Context, projectID int, emit func(Result[[]form.Form])) (Result[[]form.Form], error) {
	return fetch(ctx, c, resource.Forms, projectID, form.DecodeForms, emit)
}

// FormSubmissions fetches a project's form submissions.
func (c *Coordinator) FormSubmissions(ctx context.Context, projectID int, emit func(Result[[]form.Submission])) (Result[[]form.Submission], error) {
	return fetch(ctx, c, resource.FormSubmissions, projectID, func(raw []byte) ([]form.Submission, error) {
		return form.DecodeSubmissions(raw, projectID)
	}, emit)
}

// Documents fetches a project's documents.
func (c *Coordinator) Documents(ctx context.Context, projectID int, emit func(Result[[]document.Document])) (Result[[]document.Document], error) {
	return fetch(ctx, c, resource.Documents, projectID, func(raw []byte) ([]document.Document, error) {
		return document.DecodeList(raw, projectID)
	}, emit)
}
