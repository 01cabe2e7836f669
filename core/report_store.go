package core

// ReportStore defines the interface for report persistence. Crews archive
// their findings keyed by the tracking task id so operators can pull up the
// full report behind a completed task. Implementations should be thread-safe.
type ReportStore interface {
	Save(taskID string, report []byte) error
	Get(taskID string) ([]byte, error)
	List() ([]string, error)
	Delete(taskID string) error
}
