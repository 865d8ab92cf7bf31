package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chitralai/chitralai/internal/domain"
)

var downloadCmd = &cobra.Command{
	Use:   "download [code]",
	Short: "Save an attendee's matched photos locally",
	Long: `Copy the photos stored for an attendee from the bucket into a local
directory. With an event code only that event's stored matches are saved;
without one every event the attendee was found in is saved, one
subdirectory per event.

Nothing is compared: run "chitralctl match" first.

Examples:
  chitralctl download 482913 --user guest@example.com --out ./wedding
  chitralctl download --user guest@example.com --out ./my-photos`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().String("user", "", "Attendee email")
	downloadCmd.Flags().String("out", ".", "Directory to save photos in")
	_ = downloadCmd.MarkFlagRequired("user")
}

// downloadSet is one directory worth of photos.
type downloadSet struct {
	label string
	dir   string
	urls  []string
}

func runDownload(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	out, _ := cmd.Flags().GetString("out")
	sess := domain.Session{UserEmail: strings.ToLower(strings.TrimSpace(user))}

	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	var sets []downloadSet
	if len(args) == 1 {
		result, err := a.Attendees.SavedPhotos(ctx, sess, args[0])
		if err != nil {
			return fmt.Errorf("stored matches for %s: %w", args[0], err)
		}
		set := downloadSet{label: result.EventID, dir: out}
		for _, m := range result.Matches {
			set.urls = append(set.urls, m.ImageURL)
		}
		sets = append(sets, set)
	} else {
		events, err := a.Attendees.MyPhotos(ctx, sess)
		if err != nil {
			return fmt.Errorf("matches for %s: %w", sess.UserEmail, err)
		}
		sets = downloadSets(events, out)
	}

	reports := make([]*domain.DownloadReport, 0, len(sets))
	for _, set := range sets {
		var bar *progressbar.ProgressBar
		progress := func(done, total int) {
			if jsonOutput {
				return
			}
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription(set.label),
					progressbar.OptionShowCount(),
					progressbar.OptionFullWidth(),
				)
			}
			_ = bar.Set(done)
		}

		report, err := a.Photos.Download(ctx, set.urls, set.dir, progress)
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
		if err != nil {
			return fmt.Errorf("download %s: %w", set.label, err)
		}
		reports = append(reports, report)
	}

	if jsonOutput {
		return printJSON(reports)
	}
	for _, r := range reports {
		fmt.Printf("%d photos saved to %s\n", len(r.Saved), r.Dir)
		for _, f := range r.Failed {
			fmt.Printf("  failed %s: %s\n", f.URL, f.Reason)
		}
	}
	return nil
}

// downloadSets puts each event's photos in its own subdirectory of out.
func downloadSets(events []domain.EventPhotos, out string) []downloadSet {
	sets := make([]downloadSet, 0, len(events))
	for _, e := range events {
		label := e.EventID
		if e.EventName != "" {
			label = e.EventName
		}
		sets = append(sets, downloadSet{label: label, dir: filepath.Join(out, e.EventID), urls: e.Images})
	}
	return sets
}
