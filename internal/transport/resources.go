package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ganot/sitesync/internal/resource"
)

var routes = map[resource.Kind]string{
	resource.Projects:        "/projects",
	resource.Drawings:        "/drawings",
	resource.RFIs:            "/rfis",
	resource.Forms:           "/forms/accessible",
	resource.FormSubmissions: "/forms/submissions",
	resource.Documents:       "/documents",
}

// Route returns the request path for a kind, including the projectId query
// for project-scoped kinds.
func Route(kind resource.Kind, projectID int) (string, error) {
	path, ok := routes[kind]
	if !ok {
		return "", fmt.Errorf("no route for resource kind %q", kind)
	}
	if !kind.ProjectScoped() {
		return path, nil
	}
	q := url.Values{}
	q.Set("projectId", strconv.Itoa(projectID))
	return path + "?" + q.Encode(), nil
}

// Fetch retrieves the raw JSON for one resource collection.
func (c *Client) Fetch(ctx context.Context, token string, kind resource.Kind, projectID int) ([]byte, error) {
	path, err := Route(kind, projectID)
	if err != nil {
		return nil, err
	}
	data, err := c.send(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	return data, nil
}

type registerDeviceRequest struct {
	DeviceToken string `json:"deviceToken"`
	Platform    string `json:"platform"`
}

// RegisterDevice registers a push notification token for the current user.
func (c *Client) RegisterDevice(ctx context.Context, token, deviceToken, platform string) error {
	if err := c.do(ctx, http.MethodPost, "/notifications/register-device", token, registerDeviceRequest{
		DeviceToken: deviceToken,
		Platform:    platform,
	}, nil); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

// UpdateFormSubmission replaces a submission's responses. The API accepts
// PUT only.
func (c *Client) UpdateFormSubmission(ctx context.Context, token string, submissionID int, body any) error {
	path := "/forms/submissions/" + strconv.Itoa(submissionID)
	if err := c.do(ctx, http.MethodPut, path, token, body, nil); err != nil {
		return fmt.Errorf("update form submission %d: %w", submissionID, err)
	}
	return nil
}
