package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/switchyard-io/switchyard"
	httpAdapter "github.com/switchyard-io/switchyard/internal/adapters/http"
	"github.com/switchyard-io/switchyard/internal/logging"
	redisAdapter "github.com/switchyard-io/switchyard/pkg/adapters/redis"
	"github.com/switchyard-io/switchyard/pkg/checkpoint"
	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/dsl"
	"github.com/switchyard-io/switchyard/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Loads the machine definitions and exposes the registry as a JSON API over HTTP, with prometheus metrics on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")

		logger := logging.New(logLevel(cmd))

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		reg := switchyard.New(
			switchyard.WithLogger(logger),
			switchyard.WithLifecycleHooks(metrics.Hooks()),
		)

		defs, err := dsl.LoadDir(dir)
		if err != nil {
			fmt.Printf("Error loading definitions: %v\n", err)
			os.Exit(1)
		}

		var mgr *checkpoint.Manager
		if redisAddr != "" {
			store := redisAdapter.New(redisAddr, "", 0)
			defer store.Close()
			mgr = checkpoint.NewManager(store,
				checkpoint.WithLocker(redisAdapter.NewLocker(store.Client(), "switchyard:lock:")),
				checkpoint.WithLogger(logger),
			)
		}

		// Register definitions; with a checkpoint store attached, restore
		// any persisted machine state on top.
		startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for id, def := range defs {
			if mgr != nil {
				if _, err := mgr.Restore(startCtx, reg, id, def); err == nil {
					logger.Info("restored machine from checkpoint", "machine", id)
					continue
				} else if !errors.Is(err, domain.ErrMachineNotFound) {
					logger.Warn("checkpoint restore failed", "machine", id, "err", err)
				}
			}
			reg.Register(id, def)
		}

		handler := httpAdapter.NewHandler(reg, httpAdapter.WithLogger(logger))

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Switchyard Server on %s\n", srv.Addr)
			fmt.Printf("Serving %d machine(s) from: %s\n", len(defs), dir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if mgr != nil {
				if err := mgr.CheckpointAll(ctx, reg); err != nil {
					fmt.Printf("Checkpoint on shutdown failed: %v\n", err)
				}
			}

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Switchyard Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for machine checkpointing (e.g. localhost:6379)")
}
