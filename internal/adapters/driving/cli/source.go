package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iatoolkit/ingestd/internal/core/domain"
)

const timeFormat = "2006-01-02 15:04:05"

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage ingestion sources",
	Long:  `List, inspect, create and delete the ingestion sources of a company.`,
}

var sourceListCmd = &cobra.Command{
	Use:   "list [company]",
	Short: "List ingestion sources",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceList,
}

var sourceGetCmd = &cobra.Command{
	Use:   "get [company] [source-id]",
	Short: "Show an ingestion source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourceGet,
}

var sourceCreateCmd = &cobra.Command{
	Use:   "create [company] [name]",
	Short: "Create an ingestion source",
	Long: `Create an ingestion source bound to a connector alias of the company.

Example:
  ingestd source create acme contracts --connector s3_docs --root contracts/ --cron @daily`,
	Args: cobra.ExactArgs(2),
	RunE: runSourceCreate,
}

var sourceDeleteCmd = &cobra.Command{
	Use:   "delete [company] [source-id]",
	Short: "Delete an ingestion source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourceDelete,
}

func init() {
	sourceCreateCmd.Flags().String("connector", "", "connector alias from the company configuration")
	sourceCreateCmd.Flags().String("root", "", "root path or key prefix")
	sourceCreateCmd.Flags().String("folder", "", "optional sub-folder below the root")
	sourceCreateCmd.Flags().String("collection", "", "collection name")
	sourceCreateCmd.Flags().String("cron", "", "schedule (cron expression, @hourly or @daily)")

	sourceCmd.AddCommand(sourceListCmd, sourceGetCmd, sourceCreateCmd, sourceDeleteCmd)
	rootCmd.AddCommand(sourceCmd)
}

func parseSourceID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid source id %q", arg)
	}
	return id, nil
}

func runSourceList(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	ctx := cmd.Context()
	company, err := resolveCompany(ctx, args[0])
	if err != nil {
		return err
	}

	sources, err := ingestor.ListSources(ctx, company)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Printf("No ingestion sources for %s\n", company.ShortName)
		return nil
	}

	cmd.Printf("Ingestion sources for %s:\n\n", company.ShortName)
	for i := range sources {
		s := &sources[i]
		cmd.Printf("  [%d] %s (%s)\n", s.ID, s.Name, s.Status)
		if s.ConnectorName != "" {
			cmd.Printf("    Connector: %s\n", s.ConnectorName)
		}
		if s.ScheduleCron != "" {
			cmd.Printf("    Schedule:  %s\n", s.ScheduleCron)
		}
	}
	cmd.Printf("\nTotal: %d sources\n", len(sources))
	return nil
}

func runSourceGet(cmd *cobra.Command, args []string) error {
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

	s, err := ingestor.GetSource(ctx, company, id)
	if err != nil {
		return fmt.Errorf("failed to get source: %w", err)
	}

	cmd.Printf("Source: %s\n\n", s.Name)
	cmd.Printf("  ID:         %d\n", s.ID)
	cmd.Printf("  Status:     %s\n", s.Status)
	cmd.Printf("  Connector:  %s\n", s.ConnectorName)
	cmd.Printf("  Collection: %s\n", s.CollectionName())
	cmd.Printf("  Schedule:   %s\n", s.ScheduleCron)
	cmd.Printf("  Last run:   %s\n", formatTime(s.LastRunAt))
	if s.LastError != "" {
		cmd.Printf("  Last error: %s\n", s.LastError)
	}

	if len(s.Configuration) > 0 {
		cmd.Println("\n  Configuration:")
		keys := make([]string, 0, len(s.Configuration))
		for k := range s.Configuration {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, s.Configuration[k])
		}
	}
	return nil
}

func runSourceCreate(cmd *cobra.Command, args []string) error {
	if err := requireIngestor(); err != nil {
		return err
	}
	ctx := cmd.Context()
	company, err := resolveCompany(ctx, args[0])
	if err != nil {
		return err
	}

	name := args[1]
	in := domain.SourceInput{Name: &name}
	config := map[string]any{}

	flags := cmd.Flags()
	if v, _ := flags.GetString("connector"); v != "" {
		in.ConnectorName = &v
	}
	if v, _ := flags.GetString("collection"); v != "" {
		in.CollectionName = &v
	}
	if v, _ := flags.GetString("cron"); v != "" {
		in.ScheduleCron = &v
	}
	if v, _ := flags.GetString("root"); v != "" {
		config[domain.ConfigKeyRoot] = v
	}
	if v, _ := flags.GetString("folder"); v != "" {
		config[domain.ConfigKeyFolder] = v
	}
	in.Configuration = config

	s, err := ingestor.CreateSource(ctx, company, in)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	cmd.Printf("Created source %s with id %d\n", s.Name, s.ID)
	return nil
}

func runSourceDelete(cmd *cobra.Command, args []string) error {
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

	if err := ingestor.DeleteSource(ctx, company, id); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	cmd.Printf("Deleted source %d\n", id)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeFormat)
}
