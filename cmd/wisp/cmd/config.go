package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	DID      string `json:"did" yaml:"did"`           // Repository owner
	Output   string `json:"output" yaml:"output"`     // Local store directory
	LogLevel string `json:"loglevel" yaml:"loglevel"` // Default logging level
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CLIConfig) setWispParams(flags *flagsT) {
	if flags.upload.did == "" {
		flags.upload.did = c.DID
	}
	if flags.root.output == "" {
		flags.root.output = c.Output
	}
	if flags.root.logLevel == "" {
		flags.root.logLevel = c.LogLevel
	}
}

// configCmd groups the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage a config",
	Long: `Commands to manage the wisp CLI config.

Configuration for wisp is the common set of flags that are needed for most
commands and do not change across runs, analogous to "git config ...".`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
