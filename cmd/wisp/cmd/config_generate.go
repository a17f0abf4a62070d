package cmd

import (
	"os"
	"os/user"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/spf13/cobra"
)

var configGen = &cobra.Command{
	Use:   "generate",
	Short: "Generate a config",
	Long:  "Generate a config to use for wisp. Config file will be placed in $HOME/.wisp/wisp.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		user, err := user.Current()
		if user == nil || err != nil {
			wrapFatalln("Could not get home directory for user", nil)
			return
		}
		config := CLIConfig{
			DID:      wispFlags.upload.did,
			Output:   wispFlags.root.output,
			LogLevel: wispFlags.root.logLevel,
		}
		o, e := yaml.Marshal(config)
		if e != nil {
			wrapFatalln("serialize config to yaml", e)
			return
		}
		_ = os.Mkdir(filepath.Join(user.HomeDir, ".wisp"), 0777)
		err = os.WriteFile(filepath.Join(user.HomeDir, ".wisp", "wisp.yaml"), o, 0666)
		if err != nil {
			wrapFatalln("write config file", err)
			return
		}
	},
}

func init() {
	addDIDFlag(configGen)

	configCmd.AddCommand(configGen)
}
