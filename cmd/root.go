package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gerritbot/internal/config"
	"gerritbot/internal/format"
	"gerritbot/internal/gerrit"
	"gerritbot/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"
)

const version = "0.1.0"

var (
	sinceFlag         string
	untilFlag         string
	configFlag        string
	filterFlag        string
	workersFlag       int
	dedupeCapFlag     int
	dedupeTTLFlag     time.Duration
	escapeQueriesFlag bool
	jsonFlag          bool
	verboseFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "gerritbot [event files...]",
	Short: "Turn captured Gerrit review events into chat messages",
	Long: `Reads Gerrit stream-events JSON lines (from files, or stdin when no file
or "-" is given) and prints one markdown message per tracked approval.`,
	SilenceUsage: true,
	RunE:         run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version)
	},
}

func init() {
	rootCmd.Flags().StringVar(&sinceFlag, "since", "", `start date inclusive, e.g. "2026-01-28", "yesterday", "2 weeks ago" (default: unbounded)`)
	rootCmd.Flags().StringVar(&untilFlag, "until", "", `end date inclusive, e.g. "2026-02-04", "today", "last friday" (default: unbounded)`)
	rootCmd.Flags().StringVar(&configFlag, "config", "", "YAML config file (default: $GERRITBOT_CONFIG)")
	rootCmd.Flags().StringVar(&filterFlag, "filter", "", "drop messages matching this regular expression")
	rootCmd.Flags().IntVar(&workersFlag, "workers", 0, "number of formatting workers (default: from config)")
	rootCmd.Flags().IntVar(&dedupeCapFlag, "dedupe-capacity", 0, "remember this many messages and drop repeats (0 disables)")
	rootCmd.Flags().DurationVar(&dedupeTTLFlag, "dedupe-ttl", 0, `how long a message is remembered, e.g. "10m" (0: until evicted)`)
	rootCmd.Flags().BoolVar(&escapeQueriesFlag, "escape-queries", false, "percent-encode values in search links")
	rootCmd.Flags().BoolVar(&jsonFlag, "json", false, "print one JSON object per message")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	// Load .env file without overriding existing env vars.
	// Precedence: flags > real env vars > .env file values > config file.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	filter, err := cfg.FilterRegexp()
	if err != nil {
		return err
	}

	since, until, err := parseDateRange(sinceFlag, untilFlag)
	if err != nil {
		return err
	}

	events, err := readAll(sources(args), since, until, logger)
	if err != nil {
		return err
	}

	formatter := format.New(format.Verbatim)
	if cfg.EscapeQueries {
		formatter = format.New(format.QueryEscape)
	}
	processor := report.NewProcessor(formatter, logger,
		report.WithBots(cfg.Bots),
		report.WithFilter(filter),
		report.WithWorkers(cfg.Workers),
		report.WithDedupe(cfg.DedupeCapacity, cfg.DedupeTTL),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	messages, stats, err := processor.Process(ctx, events)
	if err != nil {
		return err
	}
	logger.Debug("batch done", "events", stats.Events, "emitted", stats.Emitted, "failed", stats.Failed, "repeated", stats.Duplicates)

	if jsonFlag {
		return report.WriteJSON(cmd.OutOrStdout(), messages)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.Render(messages, stats, since, until))
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("filter") {
		cfg.Filter = filterFlag
	}
	if flags.Changed("workers") {
		cfg.Workers = workersFlag
	}
	if flags.Changed("escape-queries") {
		cfg.EscapeQueries = escapeQueriesFlag
	}
	if flags.Changed("dedupe-capacity") {
		cfg.DedupeCapacity = dedupeCapFlag
	}
	if flags.Changed("dedupe-ttl") {
		cfg.DedupeTTL = dedupeTTLFlag
	}
}

// sources returns the inputs to read: stdin when none are named, and stdin at
// most once since it can only be consumed by one reader.
func sources(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	result := make([]string, 0, len(args))
	stdin := false
	for _, a := range args {
		if a == "-" {
			if stdin {
				continue
			}
			stdin = true
		}
		result = append(result, a)
	}
	return result
}

// readAll reads every source concurrently. Undecodable lines are logged and
// skipped; a source that cannot be opened or read fails the run.
func readAll(paths []string, since, until time.Time, logger *slog.Logger) ([]gerrit.Event, error) {
	results := make([][]gerrit.Event, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		i, path := i, path
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := gerrit.ReadEventsFile(path, since, until)
			results[i] = events
			errs[i] = err
		}()
	}
	wg.Wait()

	var all []gerrit.Event
	for i, err := range errs {
		if err != nil && !isLineError(err) {
			return nil, err
		}
		if err != nil {
			logger.Warn("skipped undecodable events", "source", paths[i], "error", err)
		}
		all = append(all, results[i]...)
	}
	return all, nil
}

func isLineError(err error) bool {
	var lineErr *gerrit.LineError
	return errors.As(err, &lineErr)
}

const dateFormat = "2006-01-02"

// parseDateRange resolves the --since and --until flag values into a [since, until] time range.
//
// Both flags accept either an exact date (YYYY-MM-DD) or a natural language expression
// such as "yesterday", "2 weeks ago", or "last monday". Exact dates are tried first;
// if parsing fails, the input is interpreted as natural language relative to the current time.
//
// Both boundaries are inclusive:
//   - --since is normalized to the start of the resolved day (00:00:00).
//   - --until is normalized to the end of the resolved day (23:59:59).
//
// An omitted flag leaves that side of the range open (zero time).
func parseDateRange(sinceStr, untilStr string) (time.Time, time.Time, error) {
	now := time.Now()

	var since time.Time
	if sinceStr != "" {
		t, err := parseDate(sinceStr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since value %q: %w", sinceStr, err)
		}
		since = startOfDay(t)
	}

	var until time.Time
	if untilStr != "" {
		t, err := parseDate(untilStr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until value %q: %w", untilStr, err)
		}
		until = endOfDay(t)
	}

	if !since.IsZero() && !until.IsZero() && since.After(until) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since (%s) must be before --until (%s)",
			since.Format(dateFormat), until.Format(dateFormat))
	}

	return since, until, nil
}

// parseDate tries YYYY-MM-DD first, then falls back to natural language parsing
// via go-naturaldate. The ref time is used as the reference point for relative
// expressions (e.g. "2 weeks ago" is relative to ref).
func parseDate(s string, ref time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation(dateFormat, s, ref.Location()); err == nil {
		return t, nil
	}
	return naturaldate.Parse(s, ref)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
