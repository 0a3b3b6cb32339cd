package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sozary/tidsreg/internal/rpc"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the stdio JSON-RPC tool server",
	Long: `Serves the tool-call protocol over stdin/stdout (JSON-RPC 2.0, one message
per line). Logs go to stderr; stdout carries only protocol frames.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		return rpc.New(client, os.Stdin, os.Stdout).Run()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
