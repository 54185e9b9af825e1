package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ppiankov/edgarflat/internal/server"
)

var serveAddr string

// serveCmd runs the REST API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API",
	Long: `Serve the pipeline over HTTP. Requests identify their user with the
X-User-ID header (server.user_header); the user must exist.

  GET  /health
  GET  /v1/tickers[?filter=<prefix>]
  POST /v1/process       {"cik": "320193"}
  GET  /v1/financials[?all=true]
  GET  /v1/export`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		addr := serveAddr
		if addr == "" {
			addr = a.cfg.Server.Addr
		}
		srv := server.NewServer(a.cfg.Server, a.pipeline, a.fetcher, a.store, a.logger)
		return srv.Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
}
