package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/reader"
	"github.com/yamaru/aalog-reader/internal/types"
)

var _ LogAnalyzer = (*logAnalyzer)(nil)

type logAnalyzer struct {
	logger *zap.Logger
	opts   []reader.Option
}

// NewLogAnalyzer creates an analyzer. The reader options are used by AnalyzeFile.
func NewLogAnalyzer(logger *zap.Logger, opts ...reader.Option) LogAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logAnalyzer{
		logger: logger,
		opts:   append([]reader.Option{reader.WithLogger(logger)}, opts...),
	}
}

// AnalyzeFile walks the file forward from its first record. A decode failure
// part way through is reported as a warning over the records read so far.
func (a *logAnalyzer) AnalyzeFile(filename string) (*AnalysisResult, error) {
	r := reader.NewLogReader(a.opts...)
	defer r.Close()

	if err := r.Open(filename); err != nil {
		return nil, err
	}
	header := r.Header()

	var records []*types.LogRecord
	var warnings []string
	for {
		record, err := r.GetNextRecord()
		if err != nil {
			a.logger.Warn("Stopping analysis at undecodable record", zap.String("file", filename), zap.Error(err))
			warnings = append(warnings, fmt.Sprintf("stopped after %d records: %v", len(records), err))
			break
		}
		if !record.Status.OK() {
			break
		}
		records = append(records, record)
	}

	result, err := a.AnalyzeRecords(records)
	if err != nil {
		return nil, err
	}
	result.Header = header
	if got := uint64(len(records)); got != uint64(header.MsgCount) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("header declares %d records, read %d", header.MsgCount, got))
	}
	result.Warnings = append(result.Warnings, warnings...)
	result.Summary = summarize(result)
	return result, nil
}

// AnalyzeRecords skips failure-status records and analyzes the rest
func (a *logAnalyzer) AnalyzeRecords(records []*types.LogRecord) (*AnalysisResult, error) {
	ok := okRecords(records)
	result := &AnalysisResult{}
	if skipped := len(records) - len(ok); skipped > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("skipped %d records without OK status", skipped))
	}

	stats, err := a.GenerateStats(ok)
	if err != nil {
		return nil, err
	}
	gaps, err := a.DetectGaps(ok)
	if err != nil {
		return nil, err
	}
	result.Stats = stats
	result.Gaps = gaps
	result.Summary = summarize(result)
	return result, nil
}

// GenerateStats counts records by flag, component and process
func (a *logAnalyzer) GenerateStats(records []*types.LogRecord) (*Stats, error) {
	if records == nil {
		return nil, errors.New("no records to analyze")
	}
	stats := &Stats{
		TotalRecords:       uint64(len(records)),
		RecordsByFlag:      countBy(records, func(r *types.LogRecord) string { return r.LogFlag }),
		RecordsByComponent: countBy(records, func(r *types.LogRecord) string { return r.Component }),
		RecordsByProcess:   countBy(records, func(r *types.LogRecord) string { return r.ProcessName }),
	}
	if len(records) == 0 {
		return stats, nil
	}

	stats.FirstMessage = lo.MinBy(records, func(a, b *types.LogRecord) bool {
		return a.MessageNumber < b.MessageNumber
	}).MessageNumber
	stats.LastMessage = lo.MaxBy(records, func(a, b *types.LogRecord) bool {
		return a.MessageNumber > b.MessageNumber
	}).MessageNumber
	stats.FirstEvent = lo.MinBy(records, func(a, b *types.LogRecord) bool {
		return a.EventTime.Before(b.EventTime)
	}).EventTime
	stats.LastEvent = lo.MaxBy(records, func(a, b *types.LogRecord) bool {
		return a.EventTime.After(b.EventTime)
	}).EventTime

	a.logger.Debug("Generated stats",
		zap.Uint64("records", stats.TotalRecords),
		zap.Uint64("first", stats.FirstMessage),
		zap.Uint64("last", stats.LastMessage))
	return stats, nil
}

// DetectGaps reports message numbers missing between the lowest and
// highest numbered record. Duplicates are ignored.
func (a *logAnalyzer) DetectGaps(records []*types.LogRecord) (*GapReport, error) {
	if records == nil {
		return nil, errors.New("no records to analyze")
	}
	numbers := lo.Uniq(lo.Map(records, func(r *types.LogRecord, _ int) uint64 { return r.MessageNumber }))
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	report := &GapReport{}
	for i := 1; i < len(numbers); i++ {
		if numbers[i] == numbers[i-1]+1 {
			continue
		}
		gap := Gap{After: numbers[i-1], Before: numbers[i]}
		report.Gaps = append(report.Gaps, gap)
		report.Missing += gap.Size()
	}
	report.HasGaps = len(report.Gaps) > 0
	return report, nil
}

func okRecords(records []*types.LogRecord) []*types.LogRecord {
	return lo.Filter(records, func(r *types.LogRecord, _ int) bool {
		return r != nil && r.Status.OK()
	})
}

func countBy(records []*types.LogRecord, key func(*types.LogRecord) string) map[string]uint64 {
	return lo.MapValues(lo.CountValuesBy(records, key), func(n int, _ string) uint64 {
		return uint64(n)
	})
}

func summarize(result *AnalysisResult) string {
	var b strings.Builder
	stats := result.Stats
	if result.Header != nil {
		fmt.Fprintf(&b, "Computer: %s  Session: %s  Previous file: %s\n",
			result.Header.ComputerName, result.Header.Session, result.Header.PrevFileName)
	}
	if stats == nil || stats.TotalRecords == 0 {
		b.WriteString("No records\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Records: %d (messages %d..%d)\n", stats.TotalRecords, stats.FirstMessage, stats.LastMessage)
	fmt.Fprintf(&b, "Events: %s .. %s (%s)\n",
		stats.FirstEvent.Format(types.DisplayTimeLayout),
		stats.LastEvent.Format(types.DisplayTimeLayout),
		stats.Span())
	writeCounts(&b, "Flags", stats.RecordsByFlag)
	writeCounts(&b, "Components", stats.RecordsByComponent)
	writeCounts(&b, "Processes", stats.RecordsByProcess)
	if result.Gaps != nil && result.Gaps.HasGaps {
		fmt.Fprintf(&b, "Gaps: %d ranges, %d messages missing\n", len(result.Gaps.Gaps), result.Gaps.Missing)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	return b.String()
}

func writeCounts(b *strings.Builder, title string, counts map[string]uint64) {
	keys := lo.Keys(counts)
	sort.Strings(keys)
	parts := lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s=%d", k, counts[k])
	})
	fmt.Fprintf(b, "%s: %s\n", title, strings.Join(parts, " "))
}
