package cmd

import (
	"github.com/spf13/cobra"

	"dogfriendly-scraper/services"
)

func init() {
	RootCmd.AddCommand(&StaticCommand)
}

var StaticCommand = cobra.Command{
	Use:   "static",
	Short: "Format the manually collected London restaurants",
	Long:  "Format the built-in list of observed BringFido restaurants and write it next to the existing dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		venues := services.StaticVenues(cfg.BaseURL)
		logger.Info("Formatting %d static venues", len(venues))

		publisher, closeSinks := newPublisher(ctx)
		defer closeSinks()

		res, err := publisher.Publish(ctx, venues, cfg.StaticStartID, "bringfido_restaurants", "combined_dog_friendly_data")
		if err != nil {
			return err
		}

		logger.Info("Created %s with %d venues", res.OutputPath, res.Rows)
		if res.CombinedPath != "" {
			logger.Info("Created %s with %d total venues", res.CombinedPath, res.CombinedRows)
		}
		return nil
	},
}
