package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"dogfriendly-scraper/models"
	"dogfriendly-scraper/storage"
)

var (
	checkpointPath string
	fromDB         bool
	dbCategory     string
	startID        int
	outputName     string
	combinedName   string
)

func init() {
	FormatCommand.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint JSON file to format")
	FormatCommand.Flags().BoolVar(&fromDB, "from-db", false, "format the venues stored in PostgreSQL")
	FormatCommand.Flags().StringVar(&dbCategory, "category", "", "only format this category (with --from-db)")
	FormatCommand.Flags().IntVar(&startID, "start-id", 0, "first row ID (defaults to CRAWL_START_ID)")
	FormatCommand.Flags().StringVar(&outputName, "output", "bringfido_PRODUCTION_COMPLETE", "output file name prefix")
	FormatCommand.Flags().StringVar(&combinedName, "combined", "MEGA_COMBINED_DATASET", "combined file name prefix (empty to skip)")

	RootCmd.AddCommand(&FormatCommand)
}

var FormatCommand = cobra.Command{
	Use:   "format",
	Short: "Format venues from a checkpoint or the database",
	Long:  "Re-run formatting and file writing for venues saved in a checkpoint file or the venues table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkpointPath != "" && fromDB || checkpointPath == "" && !fromDB {
			return errors.New("exactly one of --checkpoint or --from-db is required")
		}

		ctx, cancel := signalContext()
		defer cancel()

		venues, err := loadVenues()
		if err != nil {
			return err
		}
		if len(venues) == 0 {
			logger.Warn("Nothing to format")
			return nil
		}
		logger.Info("Loaded %d venues", len(venues))

		id := startID
		if id == 0 {
			id = cfg.CrawlStartID
		}

		publisher, closeSinks := newPublisher(ctx)
		defer closeSinks()

		res, err := publisher.Publish(ctx, venues, id, outputName, combinedName)
		if err != nil {
			return err
		}
		logger.Info("Wrote %d rows to %s", res.Rows, res.OutputPath)
		return nil
	},
}

func loadVenues() ([]*models.Venue, error) {
	if checkpointPath != "" {
		return storage.LoadCheckpoint(checkpointPath)
	}

	pg, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		return nil, err
	}
	defer pg.Close()
	return pg.FetchAll(dbCategory)
}
