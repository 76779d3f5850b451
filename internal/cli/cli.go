// Package cli chứa các cobra command dùng chung cho userservice và contentservice.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cms-backend/internal/config"
	"cms-backend/internal/shared/server"
	"cms-backend/pkg/container"
	"cms-backend/pkg/logger"
)

// RouterFunc dựng gin engine từ container của service
type RouterFunc func(c *container.Container) *gin.Engine

// loadConfig đọc config cho service và cấu hình global logger
func loadConfig(service string) (*config.Config, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	return cfg, nil
}

// signalContext bị hủy khi nhận SIGINT/SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// NewRootCmd tạo root command; chạy không có subcommand tương đương "serve"
func NewRootCmd(service, short string, router RouterFunc) *cobra.Command {
	serve := NewServeCmd(service, router)

	root := &cobra.Command{
		Use:           service + "service",
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, NewMigrateCmd(service), NewSeedCmd(service))
	return root
}

// Execute chạy root command, lỗi -> exit code 1
func Execute(root *cobra.Command) {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ========================================
// SERVE
// ========================================

func NewServeCmd(service string, router RouterFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server until SIGINT/SIGTERM.

Migrations run first when --migrate is set or MIGRATE_ON_START=true.
Sample data is seeded when --seed is set or SEED_ON_START=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(service)
			if err != nil {
				return err
			}

			migrate, _ := cmd.Flags().GetBool("migrate")
			seed, _ := cmd.Flags().GetBool("seed")
			return runServe(cfg, service, router, migrate || cfg.App.MigrateOnStart, seed || cfg.Seed.OnStart)
		},
	}
	cmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
	cmd.Flags().Bool("seed", false, "seed sample data before serving")
	return cmd
}

func runServe(cfg *config.Config, service string, router RouterFunc, migrate, seed bool) error {
	ctx, stop := signalContext()
	defer stop()

	if migrate && cfg.Store.Driver == config.StoreDriverPostgres {
		if err := migrateUp(cfg, service); err != nil {
			return err
		}
	}

	c, err := container.NewContainer(ctx, cfg, service)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer c.Cleanup()

	if seed {
		if _, err := c.Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	if c.DB != nil {
		// dừng monitor trước khi Cleanup đóng pool
		monitorCtx, cancelMonitor := context.WithCancel(ctx)
		defer cancelMonitor()
		go c.DB.MonitorPoolHealth(monitorCtx, time.Minute)
	}

	log.Info().
		Str("service", service).
		Str("env", cfg.App.Environment).
		Str("store", cfg.Store.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("starting")

	opts := server.Options{}
	if cfg.App.RequestTimeout > 0 {
		// write timeout phải dài hơn deadline để kịp ghi problem document
		opts.WriteTimeout = cfg.App.RequestTimeout + 5*time.Second
	}
	return server.Run(ctx, ":"+cfg.App.Port, router(c), opts)
}

// ========================================
// MIGRATE
// ========================================

func NewMigrateCmd(service string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded SQL migrations of this service.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(service)
			if err != nil {
				return err
			}
			return migrateUp(cfg, service)
		},
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			cfg, err := loadConfig(service)
			if err != nil {
				return err
			}
			m, err := container.NewMigrator(cfg, service)
			if err != nil {
				return err
			}
			st, err := m.Down(steps)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d step(s), version %d (dirty=%t)\n", steps, st.Version, st.Dirty)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(service)
			if err != nil {
				return err
			}
			m, err := container.NewMigrator(cfg, service)
			if err != nil {
				return err
			}
			st, err := m.Status()
			if err != nil {
				return err
			}
			if !st.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", st.Version, st.Dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func migrateUp(cfg *config.Config, service string) error {
	m, err := container.NewMigrator(cfg, service)
	if err != nil {
		return err
	}
	st, err := m.Up()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Str("service", service).Uint("version", st.Version).Msg("[MIGRATE] schema up to date")
	return nil
}

// ========================================
// SEED
// ========================================

func NewSeedCmd(service string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample data (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(service)
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.StoreDriverMemory {
				return fmt.Errorf("seed command needs STORE_DRIVER=postgres, use serve --seed for the memory store")
			}

			ctx, stop := signalContext()
			defer stop()

			c, err := container.NewContainer(ctx, cfg, service)
			if err != nil {
				return err
			}
			defer c.Cleanup()

			n, err := c.Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d new record(s)\n", n)
			return nil
		},
	}
}
