package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mirrorkit/mirrorkit/internal/config"
	"github.com/mirrorkit/mirrorkit/internal/mirror"
	"github.com/mirrorkit/mirrorkit/internal/remote"
	"github.com/mirrorkit/mirrorkit/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "mirrorkit"
)

var (
	red  = color.New(color.FgHiRed, color.Bold).SprintFunc()
	cyan = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "mirrorkit",
	Short:   "Mirror a directory tree to or from an FTP endpoint",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// create & validate config
		cfg := &config.Config{
			Host:      viper.GetString("host"),
			Port:      viper.GetInt("port"),
			User:      viper.GetString("user"),
			Password:  viper.GetString("password"),
			RemoteDir: viper.GetString("remote_dir"),
			LocalDir:  viper.GetString("local_dir"),
			Direction: viper.GetString("direction"),
			Workers:   viper.GetInt("workers"),
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// config is good; errors past this point are runtime, not usage
		cmd.SilenceUsage = true

		engine := &mirror.Engine{
			Dialer: &remote.FTPDialer{
				Addr:     cfg.Addr(),
				User:     cfg.User,
				Password: cfg.Password,
				RootDir:  cfg.RemoteDir,
			},
			LocalRoot: cfg.LocalDir,
			Direction: mirror.Direction(cfg.Direction),
			Workers:   cfg.Workers,
			Progress:  progressPrinter(),
		}

		result, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}

		if len(result.Failed) > 0 {
			fmt.Fprintf(os.Stderr, "%s: %d transfer(s) failed, re-run to retry\n", red("WARN"), len(result.Failed))
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("host", "H", "", "FTP host")
	rootCmd.Flags().IntP("port", "P", config.DefaultPort, "FTP port")
	rootCmd.Flags().StringP("user", "u", "", "FTP user")
	rootCmd.Flags().String("password", "", "FTP password (prefer MIRRORKIT_PASSWORD or a .env file)")
	rootCmd.Flags().StringP("remote-dir", "r", "/", "Remote root directory")
	rootCmd.Flags().StringP("local-dir", "l", "", "Local root directory")
	rootCmd.Flags().StringP("direction", "d", config.DirectionDown, "Sync direction: down or up")
	rootCmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Concurrent transfer workers")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file")
}

func main() {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("ERROR"), err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// .env settings are honored first, kept from the original workflow.
	// A missing .env is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(home, ".mirrorkit"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("yaml")
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read %q: %w", viper.ConfigFileUsed(), err)
		}
	}

	// Bind flags to viper
	viper.BindPFlag("host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("user", cmd.Flags().Lookup("user"))
	viper.BindPFlag("password", cmd.Flags().Lookup("password"))
	viper.BindPFlag("remote_dir", cmd.Flags().Lookup("remote-dir"))
	viper.BindPFlag("local_dir", cmd.Flags().Lookup("local-dir"))
	viper.BindPFlag("direction", cmd.Flags().Lookup("direction"))
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))

	// Set up environment variables
	viper.SetEnvPrefix("MIRRORKIT")
	viper.AutomaticEnv()

	return nil
}

// progressPrinter rewrites a single status line per progress tick, the way
// the interactive download indicator always worked. Suppressed when stdout
// is not a terminal.
func progressPrinter() mirror.ProgressFunc {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}
	return func(path string, transferred, total int64) {
		if total > 0 {
			fmt.Printf("\r%s %s: %.2f%%", cyan("sync"), path, float64(transferred)/float64(total)*100)
			if transferred >= total {
				fmt.Println()
			}
		} else {
			fmt.Printf("\r%s %s: %d bytes", cyan("sync"), path, transferred)
		}
	}
}
