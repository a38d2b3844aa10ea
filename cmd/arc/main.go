package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"arc-go/internal/app"
	"arc-go/internal/arc"
	"arc-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newApp reads the config and creates an ArcApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Upload", "EmptyTrash").
func newApp(operation string) (*app.ArcApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewArcApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// withApp runs fn against a fresh ArcApp and records its outcome in the log.
func withApp(operation string, fn func(a *app.ArcApp) error) error {
	a, err := newApp(operation)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(a)
	a.Finish(err)
	return err
}

// confirm asks before a destructive command unless --yes was given.
func confirm(cmd *cobra.Command, prompt string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return nil
	}

	ok, err := app.Confirm(prompt)
	if errors.Is(err, app.ErrNotInteractive) {
		return fmt.Errorf("not a terminal: pass --yes to confirm")
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted")
	}
	return nil
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid file id %q", raw)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:          "arc",
	Short:        "Self-hosted file archive",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Listen:      %s\n", cfg.Server.Addr)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, _ := cmd.Flags().GetString("author")

		return withApp("Upload", func(a *app.ArcApp) error {
			s, err := a.UploadFile(cmd.Context(), author, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded #%d %s (%.2f KB)\n", s.ID, s.Filename, s.Size)
			return nil
		})
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import DIR",
	Short: "Upload every file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")
		author, _ := cmd.Flags().GetString("author")

		return withApp("Import", func(a *app.ArcApp) error {
			res, err := a.ImportDirectory(cmd.Context(), args[0], recursive, author)
			if res != nil {
				for _, s := range res.Imported {
					fmt.Printf("#%-6d %s\n", s.ID, s.Filename)
				}
				for _, p := range res.Skipped {
					fmt.Printf("skipped (too large): %s\n", p)
				}
			}
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d file(s), skipped %d\n", len(res.Imported), len(res.Skipped))
			return nil
		})
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List current files",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := arc.ListQuery{}
		order, _ := cmd.Flags().GetString("order")
		sortKey, _ := cmd.Flags().GetString("sort")
		exact, _ := cmd.Flags().GetBool("exact")
		q.Order = arc.SortOrder(order)
		q.SortKey = arc.SortKey(sortKey)
		q.Author, _ = cmd.Flags().GetString("author")
		q.Filename, _ = cmd.Flags().GetString("name")
		if exact {
			q.Match = arc.MatchExact
		}

		return withApp("List", func(a *app.ArcApp) error {
			files, err := a.ListFiles(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No files.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("#%-6d %10.2f KB  %s\n", f.ID, f.Size, f.Filename)
			}
			return nil
		})
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Move a file to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		return withApp("Delete", func(a *app.ArcApp) error {
			if err := a.DeleteFile(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Moved #%d to trash\n", id)
			return nil
		})
	},
}

// replace command
var replaceCmd = &cobra.Command{
	Use:   "replace ID FILE",
	Short: "Replace a file with a new version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldID, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		return withApp("Replace", func(a *app.ArcApp) error {
			res, err := a.ReplaceFile(cmd.Context(), oldID, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Replaced #%d %s with #%d %s\n", oldID, res.OldFilename, res.ID, res.Filename)
			return nil
		})
	},
}

// download command
var downloadCmd = &cobra.Command{
	Use:   "download ID",
	Short: "Download a file in any state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		return withApp("Download", func(a *app.ArcApp) error {
			path, err := a.DownloadFile(cmd.Context(), id, out, force)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		})
	},
}

// meta command
var metaCmd = &cobra.Command{
	Use:   "meta ID",
	Short: "Show file metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		return withApp("Metadata", func(a *app.ArcApp) error {
			rec, err := a.GetMetadata(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("ID:        %d\n", rec.ID)
			fmt.Printf("Filename:  %s\n", rec.Filename)
			fmt.Printf("Author:    %s\n", rec.Author)
			fmt.Printf("State:     %s\n", rec.State)
			fmt.Printf("Size:      %.2f KB\n", rec.Size)
			fmt.Printf("Extension: %s\n", rec.Extension)
			fmt.Printf("Uploaded:  %s\n", rec.UploadDate.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Modified:  %s\n", rec.ModifyDate.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Related:   %v\n", rec.RelatedFiles)
			return nil
		})
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Move files whose payload no longer matches their size to the trash",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("CheckFiles", func(a *app.ArcApp) error {
			ids, err := a.CheckFiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("All files intact.")
				return nil
			}
			fmt.Printf("Flagged %d file(s): %v\n", len(ids), ids)
			return nil
		})
	},
}

// trash command
var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Inspect or empty the trash",
}

var trashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trash snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("ListTrash", func(a *app.ArcApp) error {
			rows, err := a.ListTrash(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("Trash is empty.")
				return nil
			}
			for _, t := range rows {
				fmt.Printf("#%-6d file #%-6d %s  %s\n",
					t.ID, t.FileID, t.DeleteDate.Local().Format("2006-01-02 15:04:05"), t.Filename)
			}
			return nil
		})
	},
}

var trashEmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Drop all trash snapshots and purge deleted files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(cmd, "Empty the trash? Deleted files become purged."); err != nil {
			return err
		}

		return withApp("EmptyTrash", func(a *app.ArcApp) error {
			n, err := a.EmptyTrash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Purged %d file(s)\n", n)
			return nil
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View the change log",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")

		return withApp("History", func(a *app.ArcApp) error {
			entries, err := a.ListHistory(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No history.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  #%-6d %-16s %-12s %s\n",
					e.ChangeDate.Local().Format("2006-01-02 15:04:05"),
					e.FileID, e.ChangeText, e.Author, e.Filename)
			}
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirm(cmd, "Clear the whole change log?"); err != nil {
			return err
		}

		return withApp("ClearHistory", func(a *app.ArcApp) error {
			n, err := a.ClearHistory(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d history entries\n", n)
			return nil
		})
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the local database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp("DBStatus", func(a *app.ArcApp) error {
			st, err := a.DBStatus()
			if err != nil {
				return err
			}
			fmt.Printf("Path:    %s\n", st.Path)
			fmt.Printf("Version: %d (latest %d)\n", st.Version, st.Latest)
			fmt.Printf("Pending: %d\n", st.Pending())
			if st.Dirty {
				fmt.Println("Dirty:   yes")
			}
			return nil
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// trash subcommands
	trashCmd.AddCommand(trashListCmd)
	trashCmd.AddCommand(trashEmptyCmd)
	trashEmptyCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	// history subcommands
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.Flags().StringP("filter", "f", string(arc.HistoryLast10),
		"lastHour, today, yesterday, last7Days, allTime or last10")
	historyClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	dbCmd.AddCommand(dbStatusCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringP("author", "a", "", "Author label (default from config)")
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	importCmd.Flags().StringP("author", "a", "", "Author label (default from config)")
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("order", "asc", "asc or desc")
	listCmd.Flags().String("sort", "id", "id or size")
	listCmd.Flags().String("author", "", "Filter by author")
	listCmd.Flags().String("name", "", "Filter by file name")
	listCmd.Flags().Bool("exact", false, "Match author and name exactly instead of by substring")
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringP("output", "o", "", "Output file or directory (default: current directory)")
	downloadCmd.Flags().Bool("force", false, "Overwrite an existing file")
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(dbCmd)
}
