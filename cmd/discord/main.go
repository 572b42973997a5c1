package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/connect-router/internal/access"
	"github.com/keshon/connect-router/internal/adminapi"
	"github.com/keshon/connect-router/internal/commands"
	"github.com/keshon/connect-router/internal/config"
	"github.com/keshon/connect-router/internal/discord"
	"github.com/keshon/connect-router/internal/logging"
	"github.com/keshon/connect-router/internal/policy"
	"github.com/keshon/connect-router/internal/router"
	"github.com/keshon/connect-router/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Starting connect bot", zap.String("storage", cfg.StorageDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(storage.Options{
		Driver:     cfg.StorageDriver,
		Path:       cfg.StoragePath,
		MySQLDSN:   cfg.MySQLDSN,
		SQLitePath: cfg.SQLitePath,
		RedisURL:   cfg.RedisURL,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	store := policy.NewStore(backend, log.Named("policy"))
	defer store.Close()

	file, err := config.LoadFile(cfg.ConfigPath)
	if err != nil {
		return err
	}
	holder := access.NewHolder(file.AccessTable(cfg.DeveloperID))

	bot, err := discord.New(cfg.DiscordToken, log.Named("discord"))
	if err != nil {
		return err
	}

	table, err := commands.Build(commands.Deps{
		Policies: store,
		Logger:   log,
		Latency:  bot.Latency,
	})
	if err != nil {
		return fmt.Errorf("build commands: %w", err)
	}

	r, err := router.New(router.Config{
		Table:    table,
		Store:    store,
		Identity: bot,
		Access:   holder,
		Replier:  bot.Responder(cfg.ReplyRate),
		Logger:   log.Named("router"),
		Options:  file.RouterOptions(),
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx, r)
	})
	g.Go(func() error {
		return config.Watch(ctx, cfg.ConfigPath, log.Named("config"), func(f config.File) {
			holder.Store(f.AccessTable(cfg.DeveloperID))
			r.SetOptions(f.RouterOptions())
		})
	})
	if cfg.AdminAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		g.Go(func() error {
			h := adminapi.New(adminapi.Deps{
				Policies: store,
				Table:    table,
				Token:    cfg.AdminToken,
				Logger:   log.Named("admin"),
			})
			return adminapi.Run(ctx, cfg.AdminAddr, h, log.Named("admin"))
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Discord bot exited cleanly")
	return nil
}
