package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Sozary/tidsreg/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Starts the HTTP/REST front. Clients authenticate through POST /api/login
and the session is shared by all subsequent requests. Expose it through a
local tunnel to use it from browser-based clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")

		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		return server.New(client).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8000", "HTTP listen address")
}
