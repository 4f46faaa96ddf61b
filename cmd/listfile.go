/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The export and import commands save the list to a flat text file and load
// it back. The first line holds the AppId, every following line one URL.
package cmd

import (
	"fmt"
	"log"

	"github.com/seckatie/workshopd/internal/core"
	"github.com/seckatie/workshopd/internal/listfile"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Save the list and AppId to a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

		appID, err := database.GetAppID()
		if err != nil {
			return err
		}
		entries, err := database.ListEntries()
		if err != nil {
			return err
		}

		l := listfile.List{AppID: appID, URLs: make([]string, 0, len(entries))}
		for _, e := range entries {
			l.URLs = append(l.URLs, e.URL)
		}
		if err := listfile.Save(appFs, args[0], l); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d URL(s) to %s\n", len(l.URLs), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load URLs and the AppId from a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

		l, err := listfile.Load(appFs, args[0])
		if err != nil {
			return err
		}

		replace, err := cmd.Flags().GetBool("replace")
		if err != nil {
			return fmt.Errorf("failed to read --replace: %w", err)
		}
		noCheck, err := cmd.Flags().GetBool("no-check")
		if err != nil {
			return fmt.Errorf("failed to read --no-check: %w", err)
		}

		var fetcher core.PageFetcher
		if !noCheck {
			if fetcher, err = newFetcher(cmd); err != nil {
				return err
			}
		}

		if replace {
			if err := database.ClearEntries(); err != nil {
				return err
			}
		}
		// A replaced list takes the file's AppID even when it is blank.
		if replace || l.AppID != "" {
			if err := database.SetAppID(l.AppID); err != nil {
				return err
			}
			log.Printf("AppId set to %q", l.AppID)
		}

		added, err := addEntries(cmd.Context(), database, fetcher, l.URLs)
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d of %d URL(s) from %s\n", added, len(l.URLs), args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	importCmd.Flags().Bool("replace", false, "Clear the list before loading")
	importCmd.Flags().Bool("no-check", false, "Load the URLs without fetching their pages")
}
