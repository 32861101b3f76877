package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of hl7convert",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hl7convert %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
