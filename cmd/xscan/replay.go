package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xiaoshicae/xdocscan"
	"github.com/xiaoshicae/xdocscan/xconfig"
	"github.com/xiaoshicae/xdocscan/xgorm"
	"github.com/xiaoshicae/xdocscan/xlog"
	"github.com/xiaoshicae/xdocscan/xreplay"
	"github.com/xiaoshicae/xdocscan/xscan"
	"github.com/xiaoshicae/xdocscan/xstore"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type replayOptions struct {
	Input   string
	FPS     float64
	WarmUp  string
	Store   bool
	Driver  string
	DSN     string
	Migrate bool
	JSON    bool
	Verbose bool
}

func newReplayCmd() *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded scan session through the decision pipeline",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := xdocscan.R(); err != nil {
				return err
			}
			defer func() {
				if stopErr := xdocscan.Shutdown(); err == nil {
					err = stopErr
				}
			}()
			return runReplay(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Session directory containing session.json")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 0, "Override the recorded frame rate")
	cmd.Flags().StringVar(&opts.WarmUp, "warmup", "", "Override XScan.WarmUpDelay (e.g. 500ms)")
	cmd.Flags().BoolVar(&opts.Store, "store", false, "Persist results with the XGorm client from config")
	cmd.Flags().StringVar(&opts.Driver, "driver", "postgres", "Database driver used with --dsn (postgres or mysql)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Persist results to this database instead of XGorm config")
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "Create result tables before saving")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the full report as JSON")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Print one line per frame")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runReplay(ctx context.Context, stdout, stderr io.Writer, opts *replayOptions) error {
	session, err := xreplay.LoadSession(opts.Input)
	if err != nil {
		return err
	}
	if opts.FPS > 0 {
		session.Manifest.FPS = opts.FPS
	}

	cfg, err := xscan.LoadConfig()
	if err != nil {
		return err
	}
	if opts.WarmUp != "" {
		cfg.WarmUpDelay = opts.WarmUp
	}

	store, closeStore, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer closeStore()

	bar := progressbar.NewOptions(session.Len(),
		progressbar.OptionSetDescription("Replaying"),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionShowCount(),
	)

	var (
		records  []xstore.ScanFrame
		lines    []string
		started  = time.Now()
		recordID = session.Manifest.SessionID
	)
	report, err := xreplay.Run(ctx, session, cfg, xreplay.WithOnResult(func(r xreplay.Result) {
		_ = bar.Add(1)
		records = append(records, xstore.NewFrameRecord(recordID, r.Seq, r.FrameID, r.Output, r.Err))
		if opts.Verbose {
			lines = append(lines, describeResult(r))
		}
	}))
	_ = bar.Finish()
	fmt.Fprintln(stderr)
	if err != nil {
		return err
	}

	for _, line := range lines {
		fmt.Fprintln(stdout, line)
	}
	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printSummary(stdout, report)
	}

	if store == nil {
		return nil
	}
	return saveReport(ctx, store, session, report, records, started)
}

// openStore 优先使用 --dsn，其次 --store 时使用 XGorm 配置的全局 client
func openStore(ctx context.Context, opts *replayOptions) (*xstore.Store, func(), error) {
	noop := func() {}
	var db *gorm.DB
	switch {
	case opts.DSN != "":
		client, err := xgorm.NewClient(ctx, &xgorm.Config{Driver: opts.Driver, DSN: opts.DSN})
		if err != nil {
			return nil, noop, err
		}
		db = client
		noop = func() {
			if raw, err := client.DB(); err == nil {
				_ = raw.Close()
			}
		}
	case opts.Store:
		if !xconfig.ContainKey(xgorm.XGormConfigKey) {
			return nil, noop, fmt.Errorf("--store requires %s config or --dsn", xgorm.XGormConfigKey)
		}
		db = xgorm.C()
	default:
		return nil, noop, nil
	}

	store, err := xstore.New(db)
	if err != nil {
		noop()
		return nil, func() {}, err
	}
	if opts.Migrate {
		if err := store.Migrate(ctx); err != nil {
			noop()
			return nil, func() {}, err
		}
	}
	return store, noop, nil
}

func saveReport(ctx context.Context, store *xstore.Store, session *xreplay.Session, report *xreplay.Report, records []xstore.ScanFrame, started time.Time) error {
	summary := &xstore.ScanSession{
		ID:               report.SessionID,
		App:              xconfig.GetAppName(),
		Source:           session.Dir,
		EngineDowngraded: report.EngineDowngraded,
		StartedAt:        started,
		FinishedAt:       time.Now(),
	}
	for i := range records {
		// 清单未指定会话ID时以重放生成的为准
		records[i].SessionID = report.SessionID
		summary.Tally(records[i])
	}
	if err := store.SaveSession(ctx, summary); err != nil {
		return err
	}
	if err := store.SaveFrames(ctx, records); err != nil {
		return err
	}
	xlog.Info(ctx, "[xscan] replay saved, session=[%s], frames=[%d]", summary.ID, len(records))
	return nil
}

func describeResult(r xreplay.Result) string {
	if r.Err != nil {
		return fmt.Sprintf("%4d %-16s error  %v", r.Seq, r.FrameID, r.Err)
	}
	switch o := r.Output.(type) {
	case *xscan.NoneOutput:
		return fmt.Sprintf("%4d %-16s none   %s", r.Seq, r.FrameID, o.Reason)
	case *xscan.LegacyOutput:
		return fmt.Sprintf("%4d %-16s legacy %s conf=%.2f blurry=%v motion=%v", r.Seq, r.FrameID,
			o.Classification, o.Confidence, o.BlurScore.IsBlurry, o.MotionBlur.HasMotionBlur)
	case *xscan.ModernOutput:
		return fmt.Sprintf("%4d %-16s modern %s conf=%.2f doc=%s", r.Seq, r.FrameID,
			o.Classification, o.Confidence, o.EngineResult.DocumentType)
	default:
		return fmt.Sprintf("%4d %-16s unknown", r.Seq, r.FrameID)
	}
}

func printSummary(w io.Writer, report *xreplay.Report) {
	fmt.Fprintf(w, "session:    %s\n", report.SessionID)
	fmt.Fprintf(w, "frames:     %d\n", len(report.Results))
	fmt.Fprintf(w, "none:       %d\n", report.Counts[xscan.OutputTypeNone])
	fmt.Fprintf(w, "legacy:     %d\n", report.Counts[xscan.OutputTypeLegacy])
	fmt.Fprintf(w, "modern:     %d\n", report.Counts[xscan.OutputTypeModern])
	fmt.Fprintf(w, "errors:     %d\n", report.Errors)
	fmt.Fprintf(w, "downgraded: %v\n", report.EngineDowngraded)
	for _, m := range report.Metrics {
		fmt.Fprintf(w, "metrics %-10s count=%d errors=%d mean=%v max=%v\n", m.Name, m.Count, m.Errors, m.Mean, m.Max)
	}
}
