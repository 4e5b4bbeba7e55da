// Package temporal hands snapshot archiving to a Temporal workflow.
package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/mapdraw/internal/core/domain"
	"github.com/samirrijal/mapdraw/internal/core/ports"
	"github.com/samirrijal/mapdraw/internal/workflows"
)

// Starter is the part of client.Client the store uses.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Store implements ports.SnapshotStore by starting an ArchiveDrawingWorkflow
// for every save. Save returns once the workflow is accepted; it does not
// wait for the archive to be written. Load reads the current drawing from
// the repository the workflow writes to.
type Store struct {
	starter   Starter
	drawings  ports.DrawingRepository
	key       string
	taskQueue string
}

// NewStore creates a store archiving under key. drawings may be nil, in which
// case Load always returns "".
func NewStore(starter Starter, drawings ports.DrawingRepository, key, taskQueue string) *Store {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Store{starter: starter, drawings: drawings, key: key, taskQueue: taskQueue}
}

// Save starts the archive workflow for snapshot. Workflows of successive
// saves may run concurrently; each carries a sequence number so only the
// newest becomes the current drawing.
func (s *Store) Save(ctx context.Context, snapshot string) error {
	opts := client.StartWorkflowOptions{
		ID:        "archive-" + s.key + "-" + uuid.NewString(),
		TaskQueue: s.taskQueue,
	}
	run, err := s.starter.ExecuteWorkflow(ctx, opts, workflows.ArchiveDrawingWorkflow, workflows.ArchiveInput{
		Key:      s.key,
		Snapshot: snapshot,
		Seq:      domain.NextSeq(),
	})
	if err != nil {
		return fmt.Errorf("start archive workflow: %w", err)
	}
	if run != nil {
		slog.Debug("archive workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	}
	return nil
}

// Load returns the last archived drawing.
func (s *Store) Load(ctx context.Context) (string, error) {
	if s.drawings == nil {
		return "", nil
	}
	return s.drawings.LoadDrawing(ctx, s.key)
}
