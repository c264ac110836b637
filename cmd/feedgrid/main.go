package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"feedgrid/internal/app"
	"feedgrid/internal/config"
	"feedgrid/internal/encryption"
	"feedgrid/internal/gallery"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file from the default location.
func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// promptPassphrase reads the key passphrase from FEEDGRID_PASSPHRASE or the terminal.
func promptPassphrase() (string, error) {
	return encryption.ReadPassphrase(os.Stdin, os.Stderr, "Passphrase: ")
}

// newApp reads the config and opens a FeedApp. The caller must defer app.Close().
func newApp(ctx context.Context) (*app.FeedApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFeedApp(ctx, cfg, app.Options{
		Passphrase:   promptPassphrase,
		Console:      os.Stderr,
		ConsoleLevel: consoleLevel(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// mutated prints a warning when the change was applied but not saved, and
// passes every other error through.
func mutated(err error) error {
	if errors.Is(err, gallery.ErrOrderNotPersisted) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return err
}

// printGrid renders the gallery with the stored display preferences.
func printGrid(ctx context.Context, a *app.FeedApp) error {
	dark, err := a.Preferences().DarkMode(ctx)
	if err != nil {
		return err
	}
	offset, err := a.Preferences().GridOffset(ctx)
	if err != nil {
		return err
	}
	return app.RenderGrid(os.Stdout, a.IDs(), app.GridOptions{
		Offset: offset,
		Dark:   dark,
		Color:  isTerminal(os.Stdout),
	})
}

var verbose bool

func consoleLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

var rootCmd = &cobra.Command{
	Use:   "feedgrid",
	Short: "Arrange images for a three-column feed",
	Long: `feedgrid keeps an ordered gallery of images laid out the way a
three-column social feed shows them. Uploads land at the front; items can be
dragged onto each other's positions, removed, and exported in order.

Undo and redo span the commands of one process; use "feedgrid shell" to keep
a history across edits.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()
	},
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

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Println("Run 'feedgrid init' to prepare storage.")
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
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Blobs:      %s\n", describeBlobStore(cfg.BlobStore))
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Preview:    %s %s\n", cfg.Preview.Type, cfg.Preview.CacheDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

func describeBlobStore(c config.BlobStoreConfig) string {
	switch c.Type {
	case "filesystem":
		return "filesystem " + c.Root
	case "s3":
		return fmt.Sprintf("s3://%s/%s", c.S3Bucket, c.S3Prefix)
	default:
		return c.Type
	}
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the database, blob store and encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		res, err := app.Init(cmd.Context(), cfg, promptPassphrase)
		if err != nil {
			return err
		}

		fmt.Printf("Database ready at %s\n", res.DatabasePath)
		if res.KeysCreated {
			fmt.Printf("Encryption keys written to %s\n", cfg.Encryption.PrivateKeyPath)
		}
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show the grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return printGrid(cmd.Context(), a)
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add FILE...",
	Short: "Upload images to the front of the grid",
	Long:  "Upload images to the front of the grid. The last file given ends up first.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.Add(cmd.Context(), args)
		for _, it := range created {
			fmt.Printf("Added %s\n", it.ID)
		}
		return mutated(err)
	},
}

// mv command
var mvCmd = &cobra.Command{
	Use:   "mv MOVED TARGET",
	Short: "Drop an image onto another image's position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := mutated(a.Move(cmd.Context(), args[0], args[1])); err != nil {
			return err
		}
		return printGrid(cmd.Context(), a)
	},
}

// order command
var orderCmd = &cobra.Command{
	Use:   "order ID...",
	Short: "Replace the whole order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := mutated(a.Reorder(cmd.Context(), args)); err != nil {
			return err
		}
		return printGrid(cmd.Context(), a)
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return mutated(a.Remove(cmd.Context(), args[0]))
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export DIR",
	Short: "Write the images in display order with a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.Export(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d image(s) to %s\n", len(m.Items), args[0])
		if len(m.Missing) > 0 {
			fmt.Printf("Missing: %v\n", m.Missing)
		}
		return nil
	},
}

// prefs command
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Change display preferences",
}

var prefsDarkCmd = &cobra.Command{
	Use:   "dark",
	Short: "Toggle dark mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		on, err := a.ToggleDarkMode(cmd.Context())
		if err != nil {
			return err
		}
		if on {
			fmt.Println("Dark mode on")
		} else {
			fmt.Println("Dark mode off")
		}
		return nil
	},
}

var prefsOffsetCmd = &cobra.Command{
	Use:   "offset",
	Short: "Cycle the number of blank cells before the first image",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.CycleGridOffset(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Grid offset %d\n", n)
		return printGrid(cmd.Context(), a)
	},
}

// journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "View recent gallery operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.Journal(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit the grid interactively with undo and redo",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sh := app.NewShell(a, os.Stdin, os.Stdout, isTerminal(os.Stdout))
		if isTerminal(os.Stdin) {
			sh.Prompt = "feedgrid> "
		}
		return sh.Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// prefs subcommands
	prefsCmd.AddCommand(prefsDarkCmd)
	prefsCmd.AddCommand(prefsOffsetCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(shellCmd)
}
