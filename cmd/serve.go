package cmd

import (
	"github.com/spf13/cobra"

	"dogfriendly-scraper/metrics"
	"dogfriendly-scraper/server"
)

var port int

func init() {
	ServeCommand.Flags().IntVar(&port, "port", 0, "listen port (defaults to SERVER_PORT)")
	RootCmd.AddCommand(&ServeCommand)
}

var ServeCommand = cobra.Command{
	Use:   "serve",
	Short: "Serve the export API",
	Long:  "Serve the streaming export endpoint, the browser self-test, exported files and Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if port == 0 {
			port = cfg.ServerPort
		}

		monitor := metrics.New()
		hr := server.NewHandlerRepository(cfg, monitor, logger.Logrus(),
			server.ScraperCrawler{Config: cfg, Logger: logger, Monitor: monitor},
			server.ChromeChecker{Config: cfg},
		)

		return server.StartServer(ctx, server.NewRouter(hr), port, logger.Logrus())
	},
}
