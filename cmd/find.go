package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// findCmd groups the passthrough lookups against the Find endpoints.
var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Look up customers, projects, phases, activities and kinds",
}

var findCustomersCmd = &cobra.Command{
	Use:   "customers",
	Short: "List all available customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		raw, err := client.Customers()
		if err != nil {
			return err
		}
		return printRaw(raw)
	},
}

var findProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects for a customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		customerID, _ := cmd.Flags().GetString("customer")
		date, _ := cmd.Flags().GetString("date")

		client, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		raw, err := client.Projects(customerID, date)
		if err != nil {
			return err
		}
		return printRaw(raw)
	},
}

var findPhasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "List phases for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, _ := cmd.Flags().GetString("project")
		date, _ := cmd.Flags().GetString("date")

		client, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		raw, err := client.Phases(projectID, date)
		if err != nil {
			return err
		}
		return printRaw(raw)
	},
}

var findActivitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List activities for a phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		phaseID, _ := cmd.Flags().GetString("phase")
		date, _ := cmd.Flags().GetString("date")

		client, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		raw, err := client.Activities(phaseID, date)
		if err != nil {
			return err
		}
		return printRaw(raw)
	},
}

var findKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List kinds for a project and activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectName, _ := cmd.Flags().GetString("project-name")
		activityName, _ := cmd.Flags().GetString("activity-name")

		client, err := loggedInClient(cmd)
		if err != nil {
			return err
		}
		raw, err := client.Kinds(projectName, activityName)
		if err != nil {
			return err
		}
		return printRaw(raw)
	},
}

func printRaw(raw json.RawMessage) error {
	var buf interface{}
	if err := json.Unmarshal(raw, &buf); err == nil {
		if pretty, err := json.MarshalIndent(buf, "", "  "); err == nil {
			fmt.Println(string(pretty))
			return nil
		}
	}
	fmt.Println(string(raw))
	return nil
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.AddCommand(findCustomersCmd, findProjectsCmd, findPhasesCmd, findActivitiesCmd, findKindsCmd)

	findProjectsCmd.Flags().StringP("customer", "c", "", "Customer ID")
	findProjectsCmd.Flags().StringP("date", "d", "", "Date in format YYYY-MM-DD")
	_ = findProjectsCmd.MarkFlagRequired("customer")
	_ = findProjectsCmd.MarkFlagRequired("date")

	findPhasesCmd.Flags().StringP("project", "j", "", "Project ID")
	findPhasesCmd.Flags().StringP("date", "d", "", "Date in format YYYY-MM-DD")
	_ = findPhasesCmd.MarkFlagRequired("project")
	_ = findPhasesCmd.MarkFlagRequired("date")

	findActivitiesCmd.Flags().StringP("phase", "f", "", "Phase ID")
	findActivitiesCmd.Flags().StringP("date", "d", "", "Date in format YYYY-MM-DD")
	_ = findActivitiesCmd.MarkFlagRequired("phase")
	_ = findActivitiesCmd.MarkFlagRequired("date")

	findKindsCmd.Flags().String("project-name", "", "Project name")
	findKindsCmd.Flags().String("activity-name", "", "Activity name")
	_ = findKindsCmd.MarkFlagRequired("project-name")
	_ = findKindsCmd.MarkFlagRequired("activity-name")
}
