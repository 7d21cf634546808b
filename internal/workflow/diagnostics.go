package workflow

// Diagnostics receives the recoverable anomalies the core tolerates instead
// of failing: dropped history entries and inconsistent pause bookkeeping.
type Diagnostics interface {
	HistoryParseWarning()
	PauseInconsistency(kind string)
}

const (
	inconsistencyAlreadyPaused = "already_paused"
	inconsistencyNotPaused     = "not_paused"
)

type noopDiagnostics struct{}

func (noopDiagnostics) HistoryParseWarning() {}

func (noopDiagnostics) PauseInconsistency(string) {}
