package metrics

import "time"

// Result labels used across recorders
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder receives application measurements. Components hold a Recorder and
// default to NoopRecorder when metrics are disabled.
type Recorder interface {
	ObserveMarkdownDuration(operation string, d time.Duration)
	IncProjectOperation(operation, result string)
	ObserveImport(d time.Duration, result string)
	IncSyncAction(action string)
	ObserveHTTPRequest(route, method string, status int, d time.Duration)
	SetProjectCount(n int)
}

// NoopRecorder discards everything
type NoopRecorder struct{}

func (NoopRecorder) ObserveMarkdownDuration(string, time.Duration)         {}
func (NoopRecorder) IncProjectOperation(string, string)                    {}
func (NoopRecorder) ObserveImport(time.Duration, string)                   {}
func (NoopRecorder) IncSyncAction(string)                                  {}
func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (NoopRecorder) SetProjectCount(int)                                   {}

// OrNoop returns r, or NoopRecorder when r is nil
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
