package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/project"
)

// handleHealth reports liveness and whether updates can reach GitHub.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Projects:       s.listing.Stats().Total,
		UpdatesEnabled: s.updater.Configured(),
	})
}

// handleList returns the records matching ?category= and ?search=, with
// summary stats over the whole document.
func (s *Server) handleList(c echo.Context) error {
	doc := s.listing.Snapshot()
	matched := project.Filter(doc.Projects, c.QueryParam("category"), c.QueryParam("search"))

	views := make([]ProjectView, len(matched))
	for i, r := range matched {
		views[i] = s.view(r)
	}

	categories := doc.Categories
	if categories == nil {
		categories = []string{}
	}
	return c.JSON(http.StatusOK, ListResponse{
		Projects:   views,
		Categories: categories,
		Stats:      project.Summarize(doc),
		Matched:    len(views),
	})
}

// handleGet returns one record by name.
func (s *Server) handleGet(c echo.Context) error {
	r, ok := s.listing.Get(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}
	return c.JSON(http.StatusOK, s.view(r))
}

// handleRefresh re-runs the accessor and swaps the listing.
func (s *Server) handleRefresh(c echo.Context) error {
	ctx := c.Request().Context()
	h := s.accessor.Hydrate(ctx)
	s.listing.Replace(h.Document)

	resp := RefreshResponse{Source: h.Source, Projects: len(h.Document.Projects)}
	if h.RemoteErr != nil {
		resp.RemoteError = h.RemoteErr.Error()
	}
	s.logger.Info(ctx, "listing refreshed",
		zap.String("source", string(h.Source)),
		zap.Int("projects", resp.Projects),
	)
	return c.JSON(http.StatusOK, resp)
}

// handleUpdateTitle sets or clears a record's title. The route only lets
// POST through.
func (s *Server) handleUpdateTitle(c echo.Context) error {
	var req UpdateTitleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	update, err := s.updater.UpdateTitle(c.Request().Context(), req.Name, req.Title)
	if err != nil {
		return err
	}
	s.apply(c, update.Name, update.Field, update.Value)
	return c.JSON(http.StatusOK, UpdateTitleResponse{Success: true, Title: update.Value})
}

// handleUpdateField sets or clears any mutable field of a record.
func (s *Server) handleUpdateField(c echo.Context) error {
	var req UpdateFieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	update, err := s.updater.UpdateField(c.Request().Context(), c.Param("name"), c.Param("field"), req.Value)
	if err != nil {
		return err
	}
	s.apply(c, update.Name, update.Field, update.Value)
	return c.JSON(http.StatusOK, UpdateFieldResponse(update))
}

// apply patches the listing after a committed update. A record missing from
// the listing means the listing predates the record; the next refresh will
// pick it up.
func (s *Server) apply(c echo.Context, name string, field project.Field, value *string) {
	if !s.listing.ApplyUpdate(name, field, value) {
		s.logger.Warn(c.Request().Context(), "updated record not in listing", zap.String("name", name))
	}
}

func (s *Server) view(r project.Record) ProjectView {
	v := ProjectView{Record: r, DisplayTitle: r.DisplayTitle()}
	days, freshness := project.RecordFreshness(r, s.now())
	v.Freshness = freshness
	if freshness != project.Unknown {
		v.DaysSinceUpdate = &days
	}
	return v
}
