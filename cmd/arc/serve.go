package main

import (
	"arc-go/internal/api/handlers"
	"arc-go/internal/api/middleware"
	"arc-go/internal/app"
	"arc-go/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the archive over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		return withApp("Serve", func(a *app.ArcApp) error {
			cfg := a.Config()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := a.Logger()

			health := handlers.NewHealthHandler(a.Database(), cfg.InstanceID)
			api := handlers.NewAPIHandler(a.Archive(), health, logger, handlers.Options{
				SanitizeFilenames: cfg.Server.SanitizeFilenames,
			})

			srv := server.New(cfg.Server, logger, api,
				middleware.RequestID(),
				middleware.Metrics(),
				middleware.RequestLogger(logger),
			)
			return srv.Run(cmd.Context())
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
