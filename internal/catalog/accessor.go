package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/projectindex/internal/logging"
	"github.com/fyrsmithlabs/projectindex/internal/project"
)

//go:embed bundled/projects.json
var bundledDocument []byte

// Reader fetches the current document content.
type Reader interface {
	Fetch(ctx context.Context) (project.Snapshot, error)
}

// FallbackFunc returns local document content used when the remote read fails.
type FallbackFunc func() ([]byte, error)

// FileFallback reads the fallback document from path. The file may contain
// comments and trailing commas; they are stripped before parsing.
func FileFallback(path string) FallbackFunc {
	return func() ([]byte, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return jsonc.ToJSON(content), nil
	}
}

// BundledFallback returns the document compiled into the binary.
func BundledFallback() FallbackFunc {
	return func() ([]byte, error) {
		return bundledDocument, nil
	}
}

// Source says where a hydrated document came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
	SourceEmpty    Source = "empty"
)

// Hydration is the outcome of one load.
type Hydration struct {
	Document project.Document
	Source   Source

	// RemoteErr is the remote failure that forced the fallback, if any.
	RemoteErr error
}

// Accessor loads the project document for display. It never fails: a
// failed remote read falls back to the local copy, and a failed local read
// yields an empty document.
type Accessor struct {
	reader   Reader
	fallback FallbackFunc
	logger   *logging.Logger
	metrics  *Metrics
}

// NewAccessor creates an Accessor. A nil reader always uses the fallback; a
// nil fallback uses the bundled document.
func NewAccessor(reader Reader, fallback FallbackFunc, logger *logging.Logger) *Accessor {
	if fallback == nil {
		fallback = BundledFallback()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Accessor{
		reader:   reader,
		fallback: fallback,
		logger:   logger.Named("accessor"),
		metrics:  NewMetrics(),
	}
}

// Load returns the current document.
func (a *Accessor) Load(ctx context.Context) project.Document {
	return a.Hydrate(ctx).Document
}

// Hydrate loads the document and reports its source.
func (a *Accessor) Hydrate(ctx context.Context) Hydration {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "catalog.Hydrate")
	defer span.End()

	h := a.hydrate(ctx)
	span.SetAttributes(
		attribute.String("hydration.source", string(h.Source)),
		attribute.Int("hydration.projects", len(h.Document.Projects)),
	)
	a.metrics.HydrationsTotal.WithLabelValues(string(h.Source)).Inc()
	return h
}

func (a *Accessor) hydrate(ctx context.Context) Hydration {
	doc, remoteErr := a.readRemote(ctx)
	if remoteErr == nil {
		return Hydration{Document: doc, Source: SourceRemote}
	}
	a.logger.Warn(ctx, "remote read failed, using local fallback", zap.Error(remoteErr))

	content, err := a.fallback()
	if err == nil {
		if doc, err = project.ParseDocument(content); err == nil {
			return Hydration{Document: doc, Source: SourceFallback, RemoteErr: remoteErr}
		}
	}
	a.logger.Error(ctx, "local fallback unavailable, serving empty listing", zap.Error(err))
	return Hydration{Document: project.Document{}, Source: SourceEmpty, RemoteErr: remoteErr}
}

func (a *Accessor) readRemote(ctx context.Context) (project.Document, error) {
	if a.reader == nil {
		return project.Document{}, fmt.Errorf("no remote reader configured")
	}
	snap, err := a.reader.Fetch(ctx)
	if err != nil {
		return project.Document{}, err
	}
	return project.ParseDocument(snap.Content)
}
