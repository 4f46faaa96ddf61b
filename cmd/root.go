/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/seckatie/workshopd/internal/config"
	"github.com/seckatie/workshopd/internal/core"
	"github.com/seckatie/workshopd/internal/core/db"
	"github.com/seckatie/workshopd/internal/core/web"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// cfg holds the environment and .env defaults for the flags below.
var cfg = config.Load()

// appFs is the filesystem used for list files.
var appFs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "workshopd",
	Short: "Download Steam Workshop items and collections with SteamCMD",
	Long: `workshopd keeps a list of Steam Workshop URLs, resolves which of them are
collections, and downloads every referenced item with SteamCMD.

Without a subcommand it serves a JSON control API and classifies newly added
URLs in the background. Use the subcommands to manage the list and run
downloads from the terminal:

  workshopd add https://steamcommunity.com/sharedfiles/filedetails/?id=2503622437
  workshopd download --steamcmd /opt/steamcmd/steamcmd.sh`,
	Run: func(cmd *cobra.Command, args []string) {
		database, err := initDB(cmd)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.Close()

		fetcher, err := newFetcher(cmd)
		if err != nil {
			log.Fatalf("Failed to create page fetcher: %v", err)
		}
		driver, err := newDriver(cmd)
		if err != nil {
			log.Fatalf("Failed to configure SteamCMD: %v", err)
		}
		if err := driver.Tool().Check(); err != nil {
			log.Printf("Warning: %v; downloads will fail until it is installed", err)
		}

		numWorkers, err := cmd.Flags().GetInt("classify-workers")
		if err != nil {
			log.Fatalf("Failed to get classify workers: %v", err)
		}
		if numWorkers < 1 {
			numWorkers = 1
		}

		// Create the work queue for the classification workers
		workQueue := make(chan db.Entry, numWorkers*10)

		// Register event listeners to queue entries for classification
		database.RegisterEventListener(db.OnEntryCreatedEvent, func(event db.Event) error {
			ev := event.(db.EntryCreatedEvent)
			log.Printf("New entry created: %d - %s, queuing for classification", ev.Entry.ID, ev.Entry.URL)
			select {
			case workQueue <- ev.Entry:
			default:
				log.Printf("Warning: work queue full, entry %d will be classified before the next download", ev.Entry.ID)
			}
			return nil
		})

		// Start classification workers that fetch pages and persist results
		for i := 0; i < numWorkers; i++ {
			workerID := i
			go func() {
				log.Printf("Classify worker %d started", workerID)
				for entry := range workQueue {
					ctx, cancel := context.WithTimeout(context.Background(), 2*core.DefaultChromeTimeout)
					if _, err := core.ClassifyAndPersist(ctx, database, fetcher, entry); err != nil {
						log.Printf("Worker %d: Classification failed for id=%d url=%s: %v", workerID, entry.ID, entry.URL, err)
					} else {
						log.Printf("Worker %d: Classified entry %d", workerID, entry.ID)
					}
					cancel()
				}
				log.Printf("Classify worker %d stopped", workerID)
			}()
		}

		// On startup, queue entries that were never classified
		go func() {
			time.Sleep(2 * time.Second) // Give the server a moment to start
			entries, err := database.ListEntries()
			if err != nil {
				log.Printf("Error listing entries to classify: %v", err)
				return
			}
			var queued int
			for _, e := range entries {
				if e.Kind != db.KindUnknown {
					continue
				}
				select {
				case workQueue <- e:
					queued++
				default:
					log.Printf("Warning: work queue full, entry %d will be classified before the next download", e.ID)
				}
			}
			log.Printf("Queued %d unclassified entries on startup", queued)
		}()

		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			log.Fatalf("Failed to get addr: %v", err)
		}

		// Start the web server
		web.StartServer(addr, database, fetcher, core.NewPipeline(fetcher, driver))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringP("db", "d", cfg.DBPath, "Path to the SQLite database file")
	rootCmd.PersistentFlags().String("fetcher", cfg.Fetcher, "How workshop pages are fetched: http or chrome")
	rootCmd.PersistentFlags().String("chrome-path", cfg.ChromePath, "Path to Chrome/Chromium executable (chrome fetcher)")
	rootCmd.PersistentFlags().String("steamcmd", cfg.SteamCMDPath, "Path to the SteamCMD executable")
	rootCmd.PersistentFlags().String("install-dir", cfg.InstallDir, "SteamCMD install directory (default: the executable's directory)")
	rootCmd.PersistentFlags().Duration("timeout", cfg.DownloadTimeout, "Per-item download timeout")

	rootCmd.Flags().String("addr", cfg.Addr, "Address to listen on")
	rootCmd.Flags().IntP("classify-workers", "w", 1, "Number of classification workers to run")
}

func initDB(cmd *cobra.Command) (*db.DB, error) {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, fmt.Errorf("failed to read --db: %w", err)
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}

// newFetcher builds the page fetcher selected by --fetcher. Tests replace it.
var newFetcher = func(cmd *cobra.Command) (core.PageFetcher, error) {
	kind, err := cmd.Flags().GetString("fetcher")
	if err != nil {
		return nil, fmt.Errorf("failed to read --fetcher: %w", err)
	}

	switch kind {
	case config.FetcherHTTP:
		return core.NewHTTPFetcher(core.DefaultFetchTimeout), nil
	case config.FetcherChrome:
		chromePath, err := cmd.Flags().GetString("chrome-path")
		if err != nil {
			return nil, fmt.Errorf("failed to read --chrome-path: %w", err)
		}
		if chromePath == "" && runtime.GOOS == "darwin" {
			// Best-effort default for macOS.
			chromePath = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		}
		return core.NewChromeFetcher(core.ChromeOptions{
			ChromePath: chromePath,
			Headless:   true,
		}), nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q (want %s or %s)", kind, config.FetcherHTTP, config.FetcherChrome)
	}
}

func newDriver(cmd *cobra.Command) (*core.Driver, error) {
	path, err := cmd.Flags().GetString("steamcmd")
	if err != nil {
		return nil, fmt.Errorf("failed to read --steamcmd: %w", err)
	}
	installDir, err := cmd.Flags().GetString("install-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to read --install-dir: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, fmt.Errorf("failed to read --timeout: %w", err)
	}
	return core.NewDriver(core.Tool{Path: path, InstallDir: installDir, Timeout: timeout}), nil
}
