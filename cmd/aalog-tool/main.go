package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/yamaru/aalog-reader/internal/config"
	"github.com/yamaru/aalog-reader/internal/locator"
	"github.com/yamaru/aalog-reader/internal/reader"
	"github.com/yamaru/aalog-reader/internal/types"
)

var (
	filename   = flag.StringP("file", "f", "", "aaLog file to browse (default: newest file in --dir)")
	dir        = flag.StringP("dir", "d", "", "Log directory (default: from config or platform)")
	configFile = flag.StringP("config", "c", "", "YAML config file")
	maxRecords = flag.IntP("max", "n", 10000, "Maximum records to load, newest first across previous files")
	verbose    = flag.BoolP("verbose", "v", false, "Log to aalog-tool.log")
)

type LogApp struct {
	app         *tview.Application
	recordList  *tview.List
	detailsText *tview.TextView
	records     []*types.LogRecord
	header      *types.FileHeader
	file        string
	load        func() (*loadResult, error)
}

type loadResult struct {
	records []*types.LogRecord
	header  *types.FileHeader
	file    string
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		zc := zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{"aalog-tool.log"}
		if logger, err = zc.Build(); err != nil {
			fmt.Printf("Error creating logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer func() { _ = logger.Sync() }()

	load := func() (*loadResult, error) {
		return loadLogData(cfg, logger)
	}
	data, err := load()
	if err != nil {
		fmt.Printf("Error loading log: %v\n", err)
		os.Exit(1)
	}

	app := NewLogApp(data, load)
	if err := app.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}

func NewLogApp(data *loadResult, load func() (*loadResult, error)) *LogApp {
	app := &LogApp{load: load}

	app.app = tview.NewApplication()

	app.recordList = tview.NewList()
	app.recordList.SetBorder(true)
	app.recordList.ShowSecondaryText(false)

	app.detailsText = tview.NewTextView()
	app.detailsText.SetBorder(true)
	app.detailsText.SetTitle(" Record Details ")
	app.detailsText.SetDynamicColors(true)
	app.detailsText.SetScrollable(true)

	app.recordList.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		if index < len(app.records) {
			app.showRecordDetails(index)
		}
	})

	app.recordList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab, tcell.KeyEnter:
			app.app.SetFocus(app.detailsText)
			return nil
		case tcell.KeyEscape:
			app.app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'h':
				app.showHeaderInfo()
				return nil
			case 'r':
				app.reload()
				return nil
			}
		}
		return event
	})

	app.detailsText.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			app.move(-1)
			return nil
		case tcell.KeyDown:
			app.move(1)
			return nil
		case tcell.KeyTab:
			app.app.SetFocus(app.recordList)
			return nil
		case tcell.KeyEscape:
			app.app.Stop()
			return nil
		}
		return event
	})

	app.setData(data)
	return app
}

func (app *LogApp) setData(data *loadResult) {
	app.records = data.records
	app.header = data.header
	app.file = data.file

	app.recordList.Clear()
	app.recordList.SetTitle(fmt.Sprintf(" %d records ", len(app.records)))
	for _, record := range app.records {
		item := fmt.Sprintf("%-8d %s %-8s %s",
			record.MessageNumber,
			record.EventTime.Format("15:04:05.000"),
			record.LogFlag,
			record.Component)
		app.recordList.AddItem(item, "", 0, nil)
	}

	app.showHeaderInfo()
	// Start on the newest record
	if len(app.records) > 0 {
		app.recordList.SetCurrentItem(len(app.records) - 1)
	}
}

func (app *LogApp) reload() {
	data, err := app.load()
	if err != nil {
		app.detailsText.SetText(fmt.Sprintf("[red]Reload failed:[white] %v", tview.Escape(err.Error())))
		return
	}
	app.setData(data)
}

func (app *LogApp) move(delta int) {
	next := app.recordList.GetCurrentItem() + delta
	if next >= 0 && next < len(app.records) {
		app.recordList.SetCurrentItem(next)
	}
}

func (app *LogApp) showHeaderInfo() {
	var first, last uint64
	if len(app.records) > 0 {
		first, last = app.records[0].MessageNumber, app.records[len(app.records)-1].MessageNumber
	}

	headerInfo := fmt.Sprintf(`[yellow]aaLog File Header[white]

File: %s
Computer: %s
Session: %s
Host: %s
Previous File: %s
Messages: %d..%d (%d)
Start: %s
End: %s
Header Length: %d bytes
First/Last Record Offset: %d / %d

Loaded Records: %d (messages %d..%d)

[blue]Navigation:[white]
↑/↓: Navigate records
Tab/Enter: Switch panes
h: Show this header
r: Reload
Esc: Exit
`,
		tview.Escape(app.file),
		tview.Escape(app.header.ComputerName),
		tview.Escape(app.header.Session),
		tview.Escape(app.header.HostFQDN),
		tview.Escape(app.header.PrevFileName),
		app.header.MsgStartingNumber,
		app.header.MsgLastNumber(),
		app.header.MsgCount,
		app.header.StartTime.Format(types.DisplayTimeLayout),
		app.header.EndTime.Format(types.DisplayTimeLayout),
		app.header.HeaderLength,
		app.header.OffsetFirstRecord,
		app.header.OffsetLastRecord,
		len(app.records), first, last)

	app.detailsText.SetText(headerInfo)
}

func (app *LogApp) showRecordDetails(index int) {
	if index >= len(app.records) {
		return
	}

	record := app.records[index]

	details := fmt.Sprintf(`[yellow]Message %d[white]

[green]Time:[white]           %s
[green]Flag:[white]           %s
[green]Component:[white]      %s
[green]Process:[white]        %s (%d)
[green]Thread:[white]         %d
[green]Session:[white]        0x%08X
[green]Host:[white]           %s
[green]Offset:[white]         %d (%d bytes)
[green]Prev/Next:[white]      %d / %d

[green]Message:[white]
%s
`,
		record.MessageNumber,
		record.EventTime.Format(types.DisplayTimeLayout),
		tview.Escape(record.LogFlag),
		tview.Escape(record.Component),
		tview.Escape(record.ProcessName),
		record.ProcessID,
		record.ThreadID,
		record.SessionID,
		tview.Escape(record.HostFQDN),
		record.FileOffset,
		record.RecordLength,
		record.OffsetToPrevRecord,
		record.OffsetToNextRecord,
		tview.Escape(record.Message))

	app.detailsText.SetText(details)
	app.detailsText.ScrollToBeginning()
}

func (app *LogApp) Run() error {
	flex := tview.NewFlex()
	flex.AddItem(app.recordList, 0, 1, true)   // Left pane (1/3)
	flex.AddItem(app.detailsText, 0, 2, false) // Right pane (2/3)

	app.app.SetRoot(flex, true)
	app.app.SetFocus(app.recordList)

	return app.app.Run()
}

// loadLogData walks backward from the newest record, following previous
// files, and returns the records oldest first.
func loadLogData(cfg config.Config, logger *zap.Logger) (*loadResult, error) {
	opts := []reader.Option{
		reader.WithLogger(logger),
		reader.WithFileExtension(cfg.FileExtension),
		reader.WithDefaultDirectory(cfg.ResolveLogDirectory),
	}
	if cfg.HostFQDN != "" {
		opts = append(opts, reader.WithHostResolver(locator.StaticHost(cfg.HostFQDN)))
	}
	r := reader.NewLogReader(opts...)
	defer r.Close()

	if *filename != "" {
		if err := r.Open(*filename); err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
	} else if err := r.OpenCurrent(lo.Ternary(*dir != "", *dir, cfg.LogDirectory)); err != nil {
		return nil, fmt.Errorf("failed to find log file: %w", err)
	}

	file := r.CurrentFile()
	header, err := r.ReadHeader(false)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records []*types.LogRecord
	for len(records) < *maxRecords {
		record, err := r.GetPrevRecord()
		if err != nil {
			if len(records) == 0 {
				return nil, fmt.Errorf("failed to read record: %w", err)
			}
			// Keep what was read before a damaged or missing previous file
			logger.Warn("Stopped loading records", zap.Error(err))
			break
		}
		if !record.Status.OK() {
			break
		}
		records = append(records, record)
	}
	logger.Info("Loaded records", zap.String("file", file), zap.Int("count", len(records)))

	return &loadResult{
		records: lo.Reverse(records),
		header:  header,
		file:    file,
	}, nil
}
