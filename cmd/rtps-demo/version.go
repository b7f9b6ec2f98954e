package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is the demo host's own build version, distinct from the
// ProtocolVersion24 the wire codec targets.
const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the rtps-demo version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version)
		return nil
	},
}
