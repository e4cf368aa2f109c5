package runner

// StateStore keeps the history of completed runs.
type StateStore interface {
	// History returns completed runs, most recent first.
	History() []RunSummary
	// Get returns the run with the given ID.
	Get(id string) (RunSummary, bool)
	// Save records a completed run.
	Save(RunSummary) error
}
