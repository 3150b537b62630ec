package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dogfriendly-scraper/config"
	"dogfriendly-scraper/services"
	"dogfriendly-scraper/storage"
	"dogfriendly-scraper/utils"
)

var (
	// flags
	envFile  string
	logLevel string

	cfg    *config.Config
	logger *utils.Logger
)

func init() {
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

var RootCmd = cobra.Command{
	Use:           "dogfriendly-scraper",
	Short:         "Collect dog-friendly venues and export them as directory listings",
	Long:          "Scrape BringFido venue pages and format them for a GeoDirectory gd_place import",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = utils.NewLoggerWith(os.Stdout, cfg.LogLevel, cfg.LogJSON)
		return nil
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("%v", err)
		} else {
			os.Stderr.WriteString(err.Error() + "\n")
		}
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newPublisher wires the optional sinks enabled in the config. The returned
// func releases them.
func newPublisher(ctx context.Context) (*services.Publisher, func()) {
	var (
		opts    []services.PublisherOption
		closers []func()
	)

	if cfg.XLSXOutput {
		opts = append(opts, services.WithExtraFormat(storage.XLSXDataset{SheetName: "gd_place"}))
	}

	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL, venues will not be stored: %v", err)
		} else {
			opts = append(opts, services.WithVenueStore(pg))
			closers = append(closers, func() { _ = pg.Close() })
		}
	}

	if cfg.S3Bucket != "" {
		up, err := storage.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
		if err != nil {
			logger.Error("S3 uploads disabled: %v", err)
		} else {
			opts = append(opts, services.WithUploader(up))
		}
	}

	return services.NewPublisher(cfg, logger, opts...), func() {
		for _, c := range closers {
			c()
		}
	}
}
