/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/seckatie/workshopd/internal/core"
	"github.com/spf13/cobra"
)

var appIDCmd = &cobra.Command{
	Use:   "appid [id]",
	Short: "Show or set the AppId used for downloads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := initDB(cmd)
		if err != nil {
			return err
		}
		defer closeDB(database)

		unset, err := cmd.Flags().GetBool("unset")
		if err != nil {
			return fmt.Errorf("failed to read --unset: %w", err)
		}

		switch {
		case unset:
			if err := database.SetAppID(""); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "AppId cleared; it will be detected on the next download.")
		case len(args) == 1:
			appID := strings.TrimSpace(args[0])
			if id, ok := core.ParseWorkshopID(appID); !ok || id != appID {
				return fmt.Errorf("AppId must be numeric, got %q", args[0])
			}
			if err := database.SetAppID(appID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AppId set to %s\n", appID)
		default:
			appID, err := database.GetAppID()
			if err != nil {
				return err
			}
			if appID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "AppId not set")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), appID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appIDCmd)

	appIDCmd.Flags().Bool("unset", false, "Forget the stored AppId")
}
