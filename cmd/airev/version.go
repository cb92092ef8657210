package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wizardengineer/airev-sub001/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the airev version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	}
}
