package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the queue archive workflows and activities run on.
const TaskQueue = "mapdraw-archive"

// ArchiveInput is the input for the archive workflow. Seq orders snapshots
// of the same key; a higher Seq is newer.
type ArchiveInput struct {
	Key      string
	Snapshot string
	Seq      int64
}

// ArchiveResult reports what the archive workflow stored. Current is false
// when a newer snapshot had already become the current drawing.
type ArchiveResult struct {
	Revision int64
	Shapes   int
	Current  bool
}

// ArchiveDrawingWorkflow validates a snapshot, appends it to the revision
// archive and then makes it the current drawing for its key, unless a newer
// snapshot got there first. An invalid snapshot fails without retries and
// stores nothing.
func ArchiveDrawingWorkflow(ctx workflow.Context, input ArchiveInput) (ArchiveResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Archiving drawing", "key", input.Key, "seq", input.Seq, "bytes", len(input.Snapshot))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{ErrTypeInvalidSnapshot},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result ArchiveResult

	// Step 1: Reject snapshots that cannot be restored later
	if err := workflow.ExecuteActivity(ctx, "ValidateSnapshot", input.Snapshot).Get(ctx, &result.Shapes); err != nil {
		return result, err
	}

	// Step 2: Append to the archive
	if err := workflow.ExecuteActivity(ctx, "AppendRevision", input.Key, input.Snapshot, input.Seq).Get(ctx, &result.Revision); err != nil {
		return result, err
	}

	// Step 3: Make it the current drawing
	if err := workflow.ExecuteActivity(ctx, "StoreDrawing", input.Key, input.Snapshot, input.Seq).Get(ctx, &result.Current); err != nil {
		logger.Warn("revision archived but current drawing not updated", "key", input.Key, "revision", result.Revision, "error", err)
		return result, err
	}
	if !result.Current {
		logger.Info("Newer drawing already current, kept it", "key", input.Key, "seq", input.Seq)
	}

	logger.Info("Drawing archived", "key", input.Key, "revision", result.Revision, "shapes", result.Shapes, "current", result.Current)
	return result, nil
}
