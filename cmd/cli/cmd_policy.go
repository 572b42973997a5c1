package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/keshon/connect-router/internal/commands"
	"github.com/keshon/connect-router/internal/policy"

	"github.com/spf13/cobra"
)

func newPolicyCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Read or change the policy of a guild",
	}
	cmd.AddCommand(newPolicyGetCmd(open), newPolicySetCmd(open))
	return cmd
}

func newPolicyGetCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <guild-id>",
		Short: "Print the policy record of a guild's bucket, creating the defaults if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetOrCreate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("policy get: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newPolicySetCmd(open openFunc) *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "set <guild-id> [flags]",
		Short: "Change the policy of a guild's bucket",
		Example: "  connectctl policy set 41771983423143937 --set-custom-prefix '?'\n" +
			"  connectctl policy set 41771983423143937 --channel 81384788765712384 --ignore-channel yes",
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel the --ignore-channel toggle applies to")
	flags := commands.NewSettingsFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		patch := flags.Patch()
		if patch.Empty() {
			return errors.New("policy set: nothing to change")
		}
		if patch.IgnoreChannel != nil && channel == "" {
			return errors.New("policy set: --ignore-channel needs --channel")
		}

		store, err := open()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Update(cmd.Context(), args[0], channel, patch)
		if err != nil {
			return fmt.Errorf("policy set: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), rec)
	}
	return cmd
}

func printJSON(w io.Writer, rec policy.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
