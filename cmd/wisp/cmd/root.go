package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wisp",
	Short: "Wisp publishes static sites as manifest records",
	Long: `Wisp publishes static sites as hierarchical manifest records over a
content-addressed blob store.

Each file is gzipped, base64-encoded and stored under its content
identifier; the directory tree is committed as a manifest record, split
into subfs records whenever a record would exceed the store's size
limit. Re-publishing a site reuses every blob whose content did not
change.
`,
}

var config *CLIConfig

// used to patch over calls to os.Exit() during test
var logFatalln = log.Fatalln
var logFatalf = log.Fatalf

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&wispFlags.root.logLevel, "loglevel", "",
		"The logging level (debug, info, none)")
	rootCmd.PersistentFlags().StringVar(&wispFlags.root.output, "output", "",
		"Directory holding the local blob and record stores (default .wisp)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("output", ".wisp")
	if os.Getenv("WISP_CONFIG") != "" {
		// Use config file from the flag.
		viper.SetConfigFile(os.Getenv("WISP_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.wisp")
		viper.AddConfigPath("/etc/wisp")
		viper.SetConfigName("wisp")
	}

	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
	}
	config.setWispParams(&wispFlags)
}
