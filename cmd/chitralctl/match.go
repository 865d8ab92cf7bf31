package main

import (
	"fmt"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chitralai/chitralai/internal/domain"
)

var matchCmd = &cobra.Command{
	Use:   "match <code>",
	Short: "Find an attendee's photos in an event",
	Long: `Compare a selfie against every photo of the event and print the
matching photos, strongest first. A stored result for the user and event is
returned without a new sweep.

Without --selfie-key the user's current selfie is used.

Examples:
  chitralctl match 482913 --user guest@example.com
  chitralctl match 482913 --user guest@example.com --selfie-key users/guest@example.com/selfies/selfie-1.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("user", "", "Attendee email")
	matchCmd.Flags().String("selfie-key", "", "Selfie object key or URL")
	_ = matchCmd.MarkFlagRequired("user")
}

func runMatch(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	selfie, _ := cmd.Flags().GetString("selfie-key")
	user = strings.ToLower(strings.TrimSpace(user))

	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	event, err := a.Resolver.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	if selfie == "" {
		selfie, err = a.SelfieSvc.Current(ctx, user)
		if err != nil {
			return fmt.Errorf("current selfie for %s: %w", user, err)
		}
	}

	var bar *progressbar.ProgressBar
	progress := func(p domain.SweepProgress) {
		if jsonOutput {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetDescription("Comparing"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(p.Processed)
	}

	result, err := a.Matcher.FindMatches(ctx, user, event, selfie, progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("match %s: %w", event.Key(), err)
	}

	if jsonOutput {
		return printJSON(result)
	}

	source := "sweep"
	if result.FromCache {
		source = "cache"
	}
	fmt.Printf("%d matching photos in %s (%s)\n", len(result.Matches), event.Name, source)
	if result.Failed > 0 {
		fmt.Printf("%d of %d comparisons failed\n", result.Failed, result.Scanned)
	}
	for _, m := range result.Matches {
		fmt.Printf("  %6.2f  %s\n", m.Similarity, m.ImageURL)
	}
	return nil
}
