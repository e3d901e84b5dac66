package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var connectorsCmd = &cobra.Command{
	Use:   "connectors [company]",
	Short: "List connector aliases of a company",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectors,
}

func init() {
	rootCmd.AddCommand(connectorsCmd)
}

func runConnectors(cmd *cobra.Command, args []string) error {
	if companyService == nil {
		return errors.New("company service not configured")
	}
	connectors, err := companyService.ListConnectors(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list connectors: %w", err)
	}
	if len(connectors) == 0 {
		cmd.Printf("No connectors configured for %s\n", args[0])
		return nil
	}
	for _, c := range connectors {
		cmd.Printf("  %-24s %s\n", c.Name, c.Type)
	}
	return nil
}
