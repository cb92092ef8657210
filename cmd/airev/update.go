package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wizardengineer/airev-sub001/internal/update"
)

func updateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update airev to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := update.Check()
			if err != nil {
				return err
			}
			if info == nil {
				fmt.Println("airev is up to date")
				return nil
			}

			fmt.Printf("update available: %s -> %s (%s)\n",
				info.CurrentVersion, info.LatestVersion, update.FormatSize(info.Size))
			if checkOnly {
				return nil
			}

			err = update.Apply(info, func(done, total int64) {
				if total > 0 {
					fmt.Printf("\rdownloading... %s / %s", update.FormatSize(done), update.FormatSize(total))
				}
			})
			fmt.Println()
			if err != nil {
				return err
			}
			fmt.Printf("installed %s\n", info.LatestVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "only check for a new release")
	return cmd
}
