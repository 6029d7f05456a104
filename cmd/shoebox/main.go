package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	shoebox "github.com/unowned-ai/shoebox/pkg"
	"github.com/unowned-ai/shoebox/pkg/config"
	pkgdb "github.com/unowned-ai/shoebox/pkg/db"
	"github.com/unowned-ai/shoebox/pkg/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "shoebox",
	Short: "A per-user photo library with albums, tags and search.",
	Long: `shoebox keeps photo albums for several users. Photos are image files on disk,
described by their path and the time they were taken, and carry a caption and typed
tags. Albums can be searched by date, by tags and by caption, and search results can
be saved as new albums.

Every command acts as the user given with --user (or SHOEBOX_USER). The admin account
exists from its first use and is the only one allowed to manage users.`,
	Version:       fmt.Sprintf("v%s", shoebox.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for shoebox.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(shoebox completion bash)

  Zsh:
    $ shoebox completion zsh > "${fpath[1]}/_shoebox"

  Fish:
    $ shoebox completion fish > ~/.config/fish/completions/shoebox.fish

  PowerShell:
    PS> shoebox completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of shoebox",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), shoebox.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the shoebox SQLite database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the library database schema to the latest version",
	Long: `Opens the SQLite library at --db (or the default location) and applies any schema
migrations needed for the current version of shoebox. A missing database is created
with the latest schema. Only the sqlite backend has a schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := storeConfig()
		if err != nil {
			return err
		}
		if cfg.Kind != store.KindSQLite {
			return fmt.Errorf("db upgrade needs the %s backend, not %s", store.KindSQLite, cfg.Kind)
		}
		log, err := newLogger()
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Upgrading library database at: %s (WAL: %t, Sync: %s)\n", cfg.Path, cfg.WAL, cfg.Sync)
		dbConn, err := pkgdb.Open(cmd.Context(), pkgdb.Options{Path: cfg.Path, WAL: cfg.WAL, Sync: cfg.Sync})
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return pkgdb.UpgradeDB(cmd.Context(), dbConn, cfg.Path, pkgdb.TargetSchemaVersion, log)
	},
}

// initConfig layers the config file over the SHOEBOX_* environment. Flags
// set on the command line win over both.
func initConfig() error {
	props, err := config.ReadProperties()
	if err != nil {
		return err
	}
	viper.SetDefault("log-level", props.LogLevel)
	viper.SetDefault("user", props.User)
	viper.SetDefault("output", props.Output)
	viper.SetDefault("stock-dir", props.StockDir)
	viper.SetDefault("backend", props.Store.Backend)
	viper.SetDefault("db", props.Store.Path)
	viper.SetDefault("wal", props.Store.WAL)
	viper.SetDefault("sync", props.Store.Sync)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.shoebox")
		viper.AddConfigPath("/etc/shoebox")
		viper.SetConfigName("shoebox")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func initCmd() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: shoebox.yaml in ., $HOME/.shoebox or /etc/shoebox)")
	flags.String("db", "", "Path to the library (default: a system-specific location per backend)")
	flags.String("backend", store.KindSQLite, fmt.Sprintf("Storage backend (%s)", strings.Join(store.Kinds, ", ")))
	flags.Bool("wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	flags.String("sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error, none)")
	flags.StringP("user", "u", "", "User to act as")
	flags.StringP("output", "o", outputTable, fmt.Sprintf("Output format (%s)", strings.Join(outputFormats, ", ")))
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return validateOutput(viper.GetString("output"))
	}

	dbCmd.AddCommand(dbUpgradeCmd)

	initUsersCmd()
	initAlbumsCmd()
	initPhotosCmd()
	initTagTypesCmd()
	initSearchCmd()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, usersCmd, albumsCmd, photosCmd, tagTypesCmd, searchCmd, mcpCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
