package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sozary/tidsreg/internal/snapshot"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect saved week-page captures",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved captures",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := snapshotsCmd.PersistentFlags().GetString("snapshot-db")
		store, err := snapshot.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		metas, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range metas {
			fmt.Printf("%d\t%s\t%s\t%d bytes\n", m.ID, m.Date, m.FetchedAt.Format("2006-01-02 15:04:05"), m.HTMLSize)
		}
		return nil
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the parsed JSON of one capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}

		dbPath, _ := snapshotsCmd.PersistentFlags().GetString("snapshot-db")
		store, err := snapshot.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		if html, _ := cmd.Flags().GetBool("html"); html {
			fmt.Println(string(snap.RawHTML))
			return nil
		}
		fmt.Println(string(snap.ParsedJSON))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd)
	snapshotsCmd.PersistentFlags().String("snapshot-db", "", "Snapshot database path (default is ~/.config/tidsreg/snapshots.sqlite)")
	snapshotsShowCmd.Flags().Bool("html", false, "Print the raw HTML instead of the parsed JSON")
}
