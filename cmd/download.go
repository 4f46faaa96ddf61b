/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The download command runs SteamCMD for every item referenced by the list.
//
// Collections are expanded into their member items, duplicates are dropped,
// and items are downloaded one at a time. The AppID is taken from --app-id,
// then the stored AppID, and is otherwise detected from the first URL.
//
// Example usage:
//
//	workshopd download --steamcmd=/opt/steamcmd/steamcmd.sh
//	workshopd download --retry-failed --timeout=20m
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/schollz/progressbar/v3"
	"github.com/seckatie/workshopd/internal/core"
	"github.com/spf13/cobra"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download every item on the list with SteamCMD",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd)
	},
}

// runDownload is the main function for the download command.
func runDownload(cmd *cobra.Command) error {
	database, err := initDB(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB(database)

	appID, err := cmd.Flags().GetString("app-id")
	if err != nil {
		return fmt.Errorf("failed to read --app-id: %w", err)
	}
	retryFailed, err := cmd.Flags().GetBool("retry-failed")
	if err != nil {
		return fmt.Errorf("failed to read --retry-failed: %w", err)
	}
	fetcher, err := newFetcher(cmd)
	if err != nil {
		return err
	}
	driver, err := newDriver(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var bar *progressbar.ProgressBar
	s, err := core.StartDownload(ctx, database, fetcher, core.NewPipeline(fetcher, driver), core.DownloadOptions{
		AppID:       appID,
		RetryFailed: retryFailed,
		OnEvent: func(ev core.ProgressEvent) {
			if bar == nil {
				bar = newProgressBar(cmd.ErrOrStderr(), ev.Total)
			}
			if ev.Status == core.ProgressDownloading {
				bar.Describe(fmt.Sprintf("Downloading %s", ev.ItemID))
				return
			}
			bar.Add(1)
		},
	})
	if errors.Is(err, core.ErrNothingToDownload) {
		fmt.Fprintln(cmd.OutOrStdout(), "No items to download.")
		return nil
	}
	if err != nil {
		return err
	}

	summary, err := s.Wait()
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return fmt.Errorf("download aborted: %w", err)
	}

	res := summary.Result
	fmt.Fprintf(cmd.OutOrStdout(), "AppId %s: %d of %d item(s) downloaded, %d failed, %d skipped.\n",
		summary.AppID, res.Succeeded, summary.Total, res.Failed, res.Skipped)
	if res.Failed > 0 || res.Skipped > 0 {
		return fmt.Errorf("download finished with %d failure(s)", res.Failed+res.Skipped)
	}
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetItsString("item"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().String("app-id", "", "AppId owning the items (default: stored or detected)")
	downloadCmd.Flags().Bool("retry-failed", false, "Only download entries that failed last time")
}
