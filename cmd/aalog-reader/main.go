package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/analyzer"
	"github.com/yamaru/aalog-reader/internal/config"
	"github.com/yamaru/aalog-reader/internal/locator"
	"github.com/yamaru/aalog-reader/internal/reader"
	"github.com/yamaru/aalog-reader/internal/types"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	file         string
	dir          string
	configFile   string
	unread       bool
	since        uint64
	sinceSet     bool
	maxRecords   int
	outputFormat string
	outputFile   string
	stats        bool
	bookmark     bool
	exportFile   string
	verbose      bool
}

func main() {
	var (
		opts        options
		showVersion bool
	)
	flag.StringVarP(&opts.file, "file", "f", "", "Path to an .aalog file (default: newest file in --dir)")
	flag.StringVarP(&opts.dir, "dir", "d", "", "Log directory (default: from config or platform)")
	flag.StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	flag.BoolVarP(&opts.unread, "unread", "u", false, "Fetch records written after the stored bookmark")
	flag.Uint64Var(&opts.since, "since", 0, "Fetch records numbered above this message number")
	flag.IntVarP(&opts.maxRecords, "max", "n", 0, "Maximum records to fetch (default: max_unread from config)")
	flag.StringVar(&opts.outputFormat, "format", "text", "Output format: text, json")
	flag.StringVarP(&opts.outputFile, "out", "o", "", "Write records to a file; a .zst suffix compresses with zstd")
	flag.BoolVar(&opts.stats, "stats", false, "Print a summary instead of records")
	flag.BoolVar(&opts.bookmark, "bookmark", false, "Print the stored bookmark")
	flag.StringVar(&opts.exportFile, "read-export", "", "Print records from a JSON lines export (.json or .zst)")
	flag.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()
	opts.sinceSet = flag.CommandLine.Changed("since")

	if showVersion {
		fmt.Printf("aaLog Reader\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return
	}

	if opts.outputFormat != "text" && opts.outputFormat != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown --format %q\n", opts.outputFormat)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg, opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, opts, logger); err != nil {
		logger.Error("aalog-reader failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		level, err := cfg.Level()
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func readerOptions(cfg config.Config, logger *zap.Logger) []reader.Option {
	opts := []reader.Option{
		reader.WithLogger(logger),
		reader.WithFileExtension(cfg.FileExtension),
		reader.WithBookmarkFile(cfg.BookmarkFile),
		reader.WithDefaultDirectory(cfg.ResolveLogDirectory),
	}
	if cfg.HostFQDN != "" {
		opts = append(opts, reader.WithHostResolver(locator.StaticHost(cfg.HostFQDN)))
	}
	return opts
}

func run(cfg config.Config, opts options, logger *zap.Logger) error {
	if opts.exportFile != "" {
		records, err := readExport(opts.exportFile)
		if err != nil {
			return err
		}
		return printRecords(opts, records, logger)
	}

	r := reader.NewLogReader(readerOptions(cfg, logger)...)
	defer r.Close()

	if opts.file != "" {
		if err := r.Open(opts.file); err != nil {
			return err
		}
	} else if err := r.OpenCurrent(lo.Ternary(opts.dir != "", opts.dir, cfg.LogDirectory)); err != nil {
		return err
	}
	logger.Debug("Reading log file", zap.String("file", r.CurrentFile()))

	if opts.bookmark {
		record, err := r.ReadBookmark()
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Println("No bookmark stored")
			return nil
		}
		return writeRecords(opts, []*types.LogRecord{record})
	}

	maxRecords := lo.Ternary(opts.maxRecords > 0, opts.maxRecords, cfg.MaxUnread)

	var (
		records []*types.LogRecord
		err     error
	)
	switch {
	case opts.sinceSet:
		records, err = r.GetUnreadRecordsSince(opts.since, maxRecords)
	case opts.unread:
		records, err = r.GetUnreadRecords(maxRecords)
	case opts.stats:
		result, err := analyzer.NewLogAnalyzer(logger, readerOptions(cfg, logger)...).AnalyzeFile(r.CurrentFile())
		if err != nil {
			return err
		}
		fmt.Print(result.Summary)
		return nil
	default:
		records, err = readForward(r, maxRecords)
	}
	if err != nil {
		if len(records) == 0 {
			return err
		}
		// Print what was fetched before the failure
		logger.Warn("Returning partial results", zap.Int("records", len(records)), zap.Error(err))
	}

	// Unread scans come back newest first
	if opts.unread || opts.sinceSet {
		records = lo.Reverse(records)
	}

	return printRecords(opts, records, logger)
}

// printRecords writes the records, or their summary when --stats is set
func printRecords(opts options, records []*types.LogRecord, logger *zap.Logger) error {
	if opts.stats {
		result, err := analyzer.NewLogAnalyzer(logger).AnalyzeRecords(records)
		if err != nil {
			return err
		}
		fmt.Print(result.Summary)
		return nil
	}
	return writeRecords(opts, records)
}

// readForward reads up to maxRecords records from the first record of the open file
func readForward(r *reader.Reader, maxRecords int) ([]*types.LogRecord, error) {
	var records []*types.LogRecord
	for len(records) < maxRecords {
		record, err := r.GetNextRecord()
		if err != nil {
			return records, errors.Wrapf(err, "reading record %d", len(records)+1)
		}
		if !record.Status.OK() {
			break
		}
		records = append(records, record)
	}
	return records, nil
}
