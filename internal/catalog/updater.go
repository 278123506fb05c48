package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/logging"
	"github.com/fyrsmithlabs/projectindex/internal/project"
)

const instrumentationName = "github.com/fyrsmithlabs/projectindex/internal/catalog"

// Store reads the document with its version and writes it back
// conditionally. A Commit whose version is no longer current must fail with
// an error exposing Conflict() bool returning true.
type Store interface {
	Fetch(ctx context.Context) (project.Snapshot, error)
	Commit(ctx context.Context, content []byte, message string, version project.VersionMarker) (project.VersionMarker, error)
}

// Update is the result of a committed field change.
type Update struct {
	Name  string        `json:"name"`
	Field project.Field `json:"field"`

	// Value is the normalized value that was committed. Nil means null.
	Value *string `json:"value"`

	// Version is the document version after the commit.
	Version project.VersionMarker `json:"version,omitempty"`
}

// Updater changes one field of one record in the remote document with a
// read-modify-write guarded by the document's version marker.
//
// There is no retry loop. A caller that loses a race gets an error matching
// ErrConflict and decides for itself whether to try again.
type Updater struct {
	store   Store
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewUpdater creates an Updater. A nil store is allowed: every update then
// fails with ErrConfiguration after validation, which is how a deployment
// without a GitHub token behaves.
func NewUpdater(store Store, logger *logging.Logger) *Updater {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Updater{
		store:   store,
		logger:  logger.Named("updater"),
		metrics: NewMetrics(),
		now:     time.Now,
	}
}

// Configured reports whether updates can reach a store.
func (u *Updater) Configured() bool {
	return u.store != nil
}

// UpdateTitle sets or clears the display title of the record named name.
func (u *Updater) UpdateTitle(ctx context.Context, name string, title *string) (Update, error) {
	return u.UpdateField(ctx, name, string(project.FieldTitle), title)
}

// UpdateField sets field of the record named name to value and commits the
// whole document with the message "Update <field> for <name>".
//
// A nil or empty value clears the field. Only title and url may be cleared;
// they are written as null.
func (u *Updater) UpdateField(ctx context.Context, name, field string, value *string) (update Update, err error) {
	ctx = logging.WithProject(ctx, name)
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "catalog.UpdateField")
	defer span.End()
	span.SetAttributes(
		attribute.String("project.name", name),
		attribute.String("project.field", field),
	)

	start := u.now()
	defer func() {
		u.metrics.UpdateDuration.Observe(u.now().Sub(start).Seconds())
		u.metrics.UpdatesTotal.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	f, value, err := validate(name, field, value)
	if err != nil {
		return Update{}, err
	}
	if u.store == nil {
		return Update{}, ErrConfiguration
	}

	snap, err := u.store.Fetch(ctx)
	if err != nil {
		u.logger.Warn(ctx, "failed to read project document", zap.Error(err))
		return Update{}, newUpstreamError(OpRead, err)
	}

	idx, err := locate(snap.Content, name)
	if err != nil {
		u.logger.Warn(ctx, "project document is malformed", zap.Error(err))
		return Update{}, &UpstreamError{Op: OpRead, Message: err.Error(), Err: err}
	}
	if idx < 0 {
		return Update{}, ErrNotFound
	}

	content, err := setField(snap.Content, idx, f, value)
	if err != nil {
		return Update{}, fmt.Errorf("rewrite document: %w", err)
	}

	message := fmt.Sprintf("Update %s for %s", f, name)
	version, err := u.store.Commit(ctx, content, message, snap.Version)
	if err != nil {
		ue := newUpstreamError(OpWrite, err)
		u.logger.Warn(ctx, "failed to commit project document",
			zap.Bool("conflict", ue.Conflict),
			zap.String("read_version", string(snap.Version)),
			zap.Error(err),
		)
		return Update{}, ue
	}

	u.logger.Info(ctx, "field updated",
		zap.String("field", string(f)),
		zap.String("version", string(version)),
	)
	return Update{Name: name, Field: f, Value: value, Version: version}, nil
}

// validate checks the request and normalizes the value.
func validate(name, field string, value *string) (project.Field, *string, error) {
	if name == "" {
		return "", nil, &ValidationError{Message: "Project name is required"}
	}
	f, err := project.ParseField(field)
	if err != nil {
		return "", nil, &ValidationError{Message: fmt.Sprintf("Invalid field: %v", err)}
	}
	value = project.Normalize(value)
	if value == nil && !f.Nullable() {
		return "", nil, &ValidationError{Message: fmt.Sprintf("Field %q cannot be cleared", f)}
	}
	return f, value, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrValidation):
		return outcomeValidation
	case errors.Is(err, ErrConfiguration):
		return outcomeConfiguration
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, ErrConflict):
		return outcomeConflict
	case errors.Is(err, ErrUpstreamRead):
		return outcomeReadError
	default:
		return outcomeWriteError
	}
}
