package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "packrat",
	Short: "Parse inputs against a grammar and dump the resulting tree",
	Long: `packrat provides two features:
- Parses inputs against a grammar written in the grammar-description
  language and dumps the resulting tree.
- Compiles a grammar description into a reusable JSON artifact so
  repeated runs skip re-parsing the description.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}
