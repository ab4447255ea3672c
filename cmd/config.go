package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the merged configuration (defaults, config file, environment) as YAML with the API key redacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dump := *cfg
		if dump.Google.APIKey != "" {
			dump.Google.APIKey = "[redacted]"
		}

		out, err := yaml.Marshal(dump)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
