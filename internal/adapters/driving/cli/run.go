package cli

import (
	"errors"
	"fmt"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run [company] [source-id]",
	Short: "Run an ingestion source now",
	Long: `Run an ingestion source immediately and record the run.

A source that is already running is rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

var runsCmd = &cobra.Command{
	Use:   "runs [company] [source-id]",
	Short: "Show recent runs of a source",
	Args:  cobra.ExactArgs(2),
	RunE:  runRuns,
}

var loadCmd = &cobra.Command{
	Use:   "load [company] [source-name...]",
	Short: "Load sources declared in company configuration",
	Long: `Sync knowledge_base.document_sources from the company configuration into
the store and run the named sources without recording runs.

Without filter flags only files whose name contains ".pdf" are loaded.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLoad,
}

var watchCmd = &cobra.Command{
	Use:   "watch [company] [source-id]",
	Short: "Re-run a local source whenever its files change",
	Args:  cobra.ExactArgs(2),
	RunE:  runWatch,
}

func init() {
	runCmd.Flags().String("user", "", "identifier recorded as the run trigger (default: current user)")
	runsCmd.Flags().IntP("limit", "n", 20, "number of runs to show")
	loadCmd.Flags().String("contains", "", "only files whose name contains this text")
	loadCmd.Flags().StringSlice("ext", nil, "only files with these extensions")
	loadCmd.Flags().StringSlice("exclude", nil, "skip files matching these globs")

	rootCmd.AddCommand(runCmd, runsCmd, loadCmd, watchCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	ctx := cmd.Context()
	company, err := resolveCompany(ctx, args[0])
	if err != nil {
		return err
	}
	id, err := parseSourceID(args[1])
	if err != nil {
		return err
	}

	who, _ := cmd.Flags().GetString("user")
	if who == "" {
		who = currentUser()
	}

	cmd.Printf("Running source %d for %s...\n", id, company.ShortName)
	n, err := ingestor.RunIngestion(ctx, company, id, who)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return fmt.Errorf("source %d is already running", id)
		}
		return fmt.Errorf("run failed: %w", err)
	}
	cmd.Printf("Processed %d files\n", n)
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	ctx := cmd.Context()
	company, err := resolveCompany(ctx, args[0])
	if err != nil {
		return err
	}
	id, err := parseSourceID(args[1])
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := ingestor.ListRuns(ctx, company, id, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Printf("No runs for source %d\n", id)
		return nil
	}

	for i := range runs {
		r := &runs[i]
		cmd.Printf("  #%d %-7s %s  files=%d  by=%s\n",
			r.ID, r.Status, r.StartedAt.Local().Format(timeFormat), r.ProcessedFiles, r.TriggeredBy)
		if r.ErrorMessage != "" {
			cmd.Printf("      error: %s\n", r.ErrorMessage)
		}
	}
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	ctx := cmd.Context()
	company, err := resolveCompany(ctx, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var filter *domain.FileFilter
	contains, _ := flags.GetString("contains")
	exts, _ := flags.GetStringSlice("ext")
	exclude, _ := flags.GetStringSlice("exclude")
	if f := (domain.FileFilter{FilenameContains: contains, Extensions: exts, Exclude: exclude}); !f.IsEmpty() {
		filter = &f
	}

	n, err := ingestor.LoadSources(ctx, company, args[1:], filter)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	cmd.Printf("Loaded %d files\n", n)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	if watcher == nil {
		return errors.New("watcher not configured")
	}
	ctx := cmd.Context()
	company, err := resolveCompany(ctx, args[0])
	if err != nil {
		return err
	}
	id, err := parseSourceID(args[1])
	if err != nil {
		return err
	}
	source, err := ingestor.GetSource(ctx, company, id)
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}

	cmd.Printf("Watching source %s, press Ctrl+C to stop\n", source.Name)
	return watcher.Watch(ctx, company, source)
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
