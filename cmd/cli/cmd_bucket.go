package main

import (
	"fmt"

	"github.com/keshon/connect-router/internal/policy"

	"github.com/spf13/cobra"
)

func newBucketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bucket <id> [id...]",
		Short: "Print the storage bucket of guild or channel IDs",
		Long:  "Guilds whose IDs share a bucket share one policy record.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				b, err := policy.BucketOf(id)
				if err != nil {
					return fmt.Errorf("bucket: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", id, b)
			}
			return nil
		},
	}
}
