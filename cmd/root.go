package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/Sozary/tidsreg/internal/utils"
	"github.com/Sozary/tidsreg/pkg/tidsreg"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tidsreg",
	Short: "A bridge for the Tidsreg time-registration system.",
	Long: `tidsreg logs into the Tidsreg time-registration web application and turns
its rendered pages into structured data: registered hours per day, plus the
customer/project/phase/activity lookups, served over a CLI, a REST API and a
stdio JSON-RPC tool protocol.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tidsreg.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("username", "u", "", "Tidsreg username (overrides config)")
	rootCmd.PersistentFlags().StringP("password", "p", "", "Tidsreg password (overrides config)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".tidsreg")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.tidsreg.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("tidsreg.username", "")
	viper.SetDefault("tidsreg.password", "")
	viper.SetDefault("tidsreg.baseurl", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// newClient builds the session client from the global flags and config.
func newClient(cmd *cobra.Command) (*tidsreg.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	return tidsreg.NewClient(viper.GetString("tidsreg.baseurl"), proxy)
}

// credentials resolves the username/password pair from flags first, then the
// config file.
func credentials(cmd *cobra.Command) (string, string, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if username == "" {
		username = viper.GetString("tidsreg.username")
	}
	if password == "" {
		password = viper.GetString("tidsreg.password")
	}
	if username == "" || password == "" {
		return "", "", errors.New("missing credentials: set --username/--password or tidsreg.username/tidsreg.password in the config file")
	}
	return username, password, nil
}

// loggedInClient is the common preamble of the data commands.
func loggedInClient(cmd *cobra.Command) (*tidsreg.Client, error) {
	client, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	username, password, err := credentials(cmd)
	if err != nil {
		return nil, err
	}
	if err := client.Login(username, password); err != nil {
		return nil, err
	}
	return client, nil
}
