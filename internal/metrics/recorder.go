package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFatal   ResultLabel = "fatal"
)

// FileResult is what happened to one source file.
type FileResult string

const (
	FileWritten   FileResult = "written"
	FileCopied    FileResult = "copied"
	FileUnchanged FileResult = "unchanged"
	FileFailed    FileResult = "failed"
)

// Recorder defines observability hooks for a migration run. All methods must
// tolerate a nil receiver on pointer implementations.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome string) // success|warning|failed
	IncFileResult(result FileResult)
	AddLinks(resolved, unresolved int)
	AddEmbeds(expanded, missing int)
	SetIndexedDocuments(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) IncFileResult(FileResult)                   {}
func (NoopRecorder) AddLinks(int, int)                          {}
func (NoopRecorder) AddEmbeds(int, int)                         {}
func (NoopRecorder) SetIndexedDocuments(int)                    {}
