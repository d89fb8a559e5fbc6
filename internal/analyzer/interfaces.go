package analyzer

import (
	"time"

	"github.com/yamaru/aalog-reader/internal/types"
)

// LogAnalyzer defines the interface for summarizing aaLog records
type LogAnalyzer interface {
	// AnalyzeFile reads every record of a log file forward and analyzes them
	AnalyzeFile(filename string) (*AnalysisResult, error)

	// AnalyzeRecords analyzes a collection of log records in any order
	AnalyzeRecords(records []*types.LogRecord) (*AnalysisResult, error)

	// GenerateStats generates statistics from log records
	GenerateStats(records []*types.LogRecord) (*Stats, error)

	// DetectGaps reports message numbers missing between the records
	DetectGaps(records []*types.LogRecord) (*GapReport, error)
}

// AnalysisResult contains the complete analysis of a record window
type AnalysisResult struct {
	Header   *types.FileHeader
	Stats    *Stats
	Gaps     *GapReport
	Warnings []string
	Summary  string
}

// Stats summarizes a record window
type Stats struct {
	TotalRecords uint64
	FirstMessage uint64
	LastMessage  uint64
	FirstEvent   time.Time
	LastEvent    time.Time

	RecordsByFlag      map[string]uint64
	RecordsByComponent map[string]uint64
	RecordsByProcess   map[string]uint64
}

// Span returns the time between the earliest and latest event
func (s *Stats) Span() time.Duration {
	return s.LastEvent.Sub(s.FirstEvent)
}

// GapReport lists ranges of message numbers absent from a window
type GapReport struct {
	HasGaps bool
	Gaps    []Gap
	Missing uint64
}

// Gap is a run of missing message numbers strictly between After and Before
type Gap struct {
	After  uint64
	Before uint64
}

// Size returns the number of missing messages in the gap
func (g Gap) Size() uint64 {
	return g.Before - g.After - 1
}
