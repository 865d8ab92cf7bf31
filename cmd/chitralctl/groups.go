package main

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chitralai/chitralai/internal/config"
	"github.com/chitralai/chitralai/internal/domain"
	"github.com/chitralai/chitralai/internal/service"
)

var groupsCmd = &cobra.Command{
	Use:   "groups <code>",
	Short: "Group the faces in an event's photos by person",
	Long: `Index every photo of the event into its face collection and group the
faces by person.

Strategies:
  first-match  a face joins the group of the first earlier face it matches
  connected    faces that match transitively share a group

Examples:
  chitralctl groups 482913
  chitralctl groups 482913 --strategy connected --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)

	groupsCmd.Flags().String("strategy", "", "Grouping strategy (first-match, connected); defaults to CLUSTER_STRATEGY")
}

func runGroups(cmd *cobra.Command, args []string) error {
	strategy, _ := cmd.Flags().GetString("strategy")
	switch strategy {
	case "", config.ClusterFirstMatch, config.ClusterConnected:
	default:
		return fmt.Errorf("unknown strategy %q", strategy)
	}

	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	event, err := a.Resolver.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	var (
		mu    sync.Mutex
		bar   *progressbar.ProgressBar
		phase string
	)
	progress := func(p domain.ClusterProgress) {
		if jsonOutput {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if p.Phase != phase {
			if bar != nil {
				_ = bar.Finish()
				fmt.Println()
			}
			phase = p.Phase
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetDescription(phaseLabel(p.Phase)),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(p.Done)
	}

	groups, err := a.Clusters.BuildGroups(ctx, event, service.ClusterStrategy(strategy), progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("group faces in %s: %w", event.Key(), err)
	}

	if jsonOutput {
		return printJSON(groups)
	}

	fmt.Printf("%d faces in %d groups\n", groups.TotalFaces, len(groups.Groups))
	if groups.ImagesFailed > 0 {
		fmt.Printf("%d photos could not be indexed\n", groups.ImagesFailed)
	}
	for _, g := range groups.Groups {
		fmt.Printf("  %-10s %3d faces  %s\n", g.ID, len(g.Faces), g.Representative().ImageURL)
	}
	return nil
}

func phaseLabel(phase string) string {
	switch phase {
	case domain.ClusterPhaseIndex:
		return "Indexing"
	case domain.ClusterPhaseSearch:
		return "Searching"
	default:
		return phase
	}
}
