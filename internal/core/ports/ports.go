// Package ports declares the interfaces between the analysis core and its
// collaborators: the source frontend, progress consumers and the run
// history store. Adapters implement these without the core depending on any
// concrete backend.
package ports

import (
	"context"
	"time"

	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/graph"
)

// Frontend is the source parser collaborator. Parse returns the syntax tree
// for one file; parse-level errors are file-level failures, the extractor
// never attempts partial extraction from a broken tree.
type Frontend interface {
	Parse(ctx context.Context, file graph.FileIdentity, content []byte) (*ast.CompilationUnit, error)
}

// ProgressEvent mirrors the orchestrator's phase/current/total/message
// telemetry. It is consumed by logging or UI, never by correctness logic.
type ProgressEvent struct {
	RunID   string
	Phase   string
	Current int
	Total   int
	Message string
}

type ProgressSink interface {
	Publish(event ProgressEvent)
}

// NoopProgressSink discards events. It is the default when no consumer is
// wired.
type NoopProgressSink struct{}

var _ ProgressSink = (*NoopProgressSink)(nil)

func (*NoopProgressSink) Publish(ProgressEvent) {}

// RunSnapshot summarizes one completed pipeline run.
type RunSnapshot struct {
	RunID       string
	Timestamp   time.Time
	FileCount   int
	DirtyCount  int
	FailedFiles int
	ErrorCount  int
	WarnCount   int
	CacheHits   int
	Duration    time.Duration
	Valid       bool
}

// HistoryStore persists run snapshots for trend inspection.
type HistoryStore interface {
	SaveRun(projectKey string, run RunSnapshot) error
	LoadRuns(projectKey string, since time.Time) ([]RunSnapshot, error)
	Close() error
}

// NoopHistoryStore satisfies HistoryStore with in-memory no-ops.
type NoopHistoryStore struct{}

var _ HistoryStore = (*NoopHistoryStore)(nil)

func (*NoopHistoryStore) SaveRun(string, RunSnapshot) error { return nil }
func (*NoopHistoryStore) LoadRuns(string, time.Time) ([]RunSnapshot, error) {
	return nil, nil
}
func (*NoopHistoryStore) Close() error { return nil }
