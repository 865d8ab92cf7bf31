package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <code>",
	Short: "Look up an event by its six-digit code",
	Long: `Resolve an event code the way attendees do. Leading zeros may be
dropped and a leading '#' is ignored.

Examples:
  chitralctl resolve 482913
  chitralctl resolve 001234 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	event, err := a.Resolver.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	if jsonOutput {
		return printJSON(event)
	}
	fmt.Printf("Event:   %s\n", event.Name)
	fmt.Printf("ID:      %s\n", event.Key())
	if event.Date != "" {
		fmt.Printf("Date:    %s\n", event.Date)
	}
	fmt.Printf("Owner:   %s\n", event.OwnerEmail)
	fmt.Printf("Photos:  %d\n", event.PhotoCount)
	return nil
}
