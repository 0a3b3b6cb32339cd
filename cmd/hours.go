package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sozary/tidsreg/internal/snapshot"
	"github.com/Sozary/tidsreg/internal/utils"
)

// hoursCmd represents the hours command
var hoursCmd = &cobra.Command{
	Use:   "hours [date]",
	Short: "Get registered hours for a date",
	Long: `Fetches the Tidsreg week page containing the given date (YYYY-MM-DD,
default today) and prints the parsed registered hours as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().Format("2006-01-02")
		if len(args) == 1 {
			date = args[0]
		}

		client, err := loggedInClient(cmd)
		if err != nil {
			return err
		}

		result, err := client.RegisteredHours(date)
		if err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			dbPath, _ := cmd.Flags().GetString("snapshot-db")
			store, err := snapshot.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.Save(cmd.Context(), date, []byte(result.RawHTML), result)
			if err != nil {
				return err
			}
			utils.Log.Infof("Saved snapshot %d (%d bytes of HTML)", id, result.RawHTMLSize)
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hoursCmd)
	hoursCmd.Flags().Bool("save", false, "Save the raw HTML and parsed result to the snapshot database")
	hoursCmd.Flags().String("snapshot-db", "", "Snapshot database path (default is ~/.config/tidsreg/snapshots.sqlite)")
}
