/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/

// The list commands manage the stored workshop list.
//
// Example usage:
//
//	workshopd add https://steamcommunity.com/sharedfiles/filedetails/?id=2503622437
//	workshopd list
//	workshopd remove 3
//	workshopd clear
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/seckatie/workshopd/internal/core"
	"github.com/seckatie/workshopd/internal/core/db"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <url>...",
	Short: "Add workshop item or collection URLs to the list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

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

		added, err := addEntries(cmd.Context(), database, fetcher, args)
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d URL(s).\n", added, len(args))
		return err
	},
}

// addEntries adds urls to the list and classifies each new entry when fetcher
// is non-nil. Invalid and duplicate URLs are reported and skipped.
func addEntries(ctx context.Context, database *db.DB, fetcher core.PageFetcher, urls []string) (int, error) {
	var added int
	var errs []error
	for _, u := range urls {
		e, err := database.AddEntry(u)
		if err != nil {
			if errors.Is(err, db.ErrInvalidURL) || errors.Is(err, db.ErrDuplicateEntry) {
				log.Printf("Skipping %s: %v", u, err)
				continue
			}
			errs = append(errs, err)
			continue
		}
		added++

		if fetcher == nil {
			continue
		}
		// A failed check leaves the entry in Error status; it is retried before download.
		if _, err := core.ClassifyAndPersist(ctx, database, fetcher, e); err != nil {
			log.Printf("Check failed for id=%d url=%s: %v", e.ID, e.URL, err)
		}
	}
	return added, errors.Join(errs...)
}

var removeCmd = &cobra.Command{
	Use:   "remove <id|url>...",
	Short: "Remove entries from the list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

		var errs []error
		for _, arg := range args {
			id, err := resolveEntryID(database, arg)
			if err == nil {
				err = database.DeleteEntry(id)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", arg, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %d\n", id)
		}
		return errors.Join(errs...)
	},
}

// resolveEntryID accepts a numeric entry id or an entry URL.
func resolveEntryID(database *db.DB, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return id, nil
	}
	e, err := database.GetEntryByURL(strings.TrimSpace(arg))
	if err != nil {
		return 0, err
	}
	return e.ID, nil
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry from the list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

		if err := database.ClearEntries(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "List cleared.")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the workshop list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

		status, err := cmd.Flags().GetString("status")
		if err != nil {
			return fmt.Errorf("failed to read --status: %w", err)
		}

		var entries []db.Entry
		if status != "" {
			entries, err = database.ListEntriesByStatus(db.EntryStatus(status))
		} else {
			entries, err = database.ListEntries()
		}
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tKIND\tNAME\tURL")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Status, e.Kind, e.Name, e.URL)
		}
		return tw.Flush()
	},
}

func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(addCmd, removeCmd, clearCmd, listCmd)

	addCmd.Flags().Bool("no-check", false, "Add the URLs without fetching their pages")
	listCmd.Flags().String("status", "", "Only show entries with this status (Pending, Success, Failed, ...)")
}
