// Command connectctl inspects and edits guild policies without the bot running.
package main

import (
	"fmt"
	"os"

	"github.com/keshon/connect-router/internal/config"
	"github.com/keshon/connect-router/internal/policy"
	"github.com/keshon/connect-router/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openFunc opens the policy store a command operates on.
type openFunc func() (*policy.Store, error)

func openFromEnv() (*policy.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	backend, err := storage.Open(storage.Options{
		Driver:     cfg.StorageDriver,
		Path:       cfg.StoragePath,
		MySQLDSN:   cfg.MySQLDSN,
		SQLitePath: cfg.SQLitePath,
		RedisURL:   cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return policy.NewStore(backend, zap.NewNop()), nil
}

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "connectctl",
		Short:         "Inspect and edit connect guild policies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPolicyCmd(open), newBucketCmd())
	return root
}

func main() {
	if err := newRootCmd(openFromEnv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "connectctl:", err)
		os.Exit(1)
	}
}
