package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fundview/formula/fund"
	"github.com/fundview/formula/server"
)

var (
	serveAddr string
	serveDB   string
	serveEnv  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fund analytics API",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Flags beat the .env file, which beats the process environment.
		if err := godotenv.Load(serveEnv); err != nil && !os.IsNotExist(err) {
			return fail(err)
		}
		if !cmd.Flags().Changed("addr") {
			if v := os.Getenv("ADDR"); v != "" {
				serveAddr = v
			}
		}
		if !cmd.Flags().Changed("db") {
			if v := os.Getenv("DB_PATH"); v != "" {
				serveDB = v
			}
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		store, err := fund.Open(serveDB)
		if err != nil {
			return fail(err)
		}
		srv := &http.Server{
			Addr:    serveAddr,
			Handler: server.New(store, log).Handler(),
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving", "addr", serveAddr, "db", serveDB)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fail(err)
		}
		log.Info("stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "fund.db", "fund database path")
	serveCmd.Flags().StringVar(&serveEnv, "env", ".env", "env file to load")
	rootCmd.AddCommand(serveCmd)
}
