package metadata

// These keys are used for the 'key' column in the 'metadata' table.
const (
	// LastPipelineRunAtKey stores the wall-clock time (RFC3339) of the last
	// completed selection pipeline run, successful or not. Surfaced by the
	// status endpoint for operators.
	LastPipelineRunAtKey = "last_pipeline_run_at"

	// LastSnapshotDateKey stores the round date of the most recently written
	// leaderboard snapshot.
	LastSnapshotDateKey = "last_snapshot_date"
)
