package http

import (
	"github.com/fyrsmithlabs/projectindex/internal/catalog"
	"github.com/fyrsmithlabs/projectindex/internal/project"
)

// ProjectView is a record as served to clients, with derived display fields.
type ProjectView struct {
	project.Record
	DisplayTitle    string            `json:"displayTitle"`
	DaysSinceUpdate *int              `json:"daysSinceUpdate"`
	Freshness       project.Freshness `json:"freshness"`
}

// ListResponse is the response body for GET /api/v1/projects.
type ListResponse struct {
	Projects   []ProjectView `json:"projects"`
	Categories []string      `json:"categories"`
	Stats      project.Stats `json:"stats"`

	// Matched is the number of records that passed the filter.
	Matched int `json:"matched"`
}

// UpdateTitleRequest is the request body for /api/v1/projects/update.
type UpdateTitleRequest struct {
	Name  string  `json:"name"`
	Title *string `json:"title"`
}

// UpdateTitleResponse is the success body for /api/v1/projects/update.
type UpdateTitleResponse struct {
	Success bool    `json:"success"`
	Title   *string `json:"title"`
}

// UpdateFieldRequest is the request body for
// PUT /api/v1/projects/:name/fields/:field.
type UpdateFieldRequest struct {
	Value *string `json:"value"`
}

// UpdateFieldResponse is the success body for
// PUT /api/v1/projects/:name/fields/:field.
type UpdateFieldResponse = catalog.Update

// RefreshResponse is the response body for POST /api/v1/projects/refresh.
type RefreshResponse struct {
	Source      catalog.Source `json:"source"`
	Projects    int            `json:"projects"`
	RemoteError string         `json:"remoteError,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Projects       int    `json:"projects"`
	UpdatesEnabled bool   `json:"updatesEnabled"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
