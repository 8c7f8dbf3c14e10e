package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chemca/httpapi"
	"chemca/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP surface over the configured database",
	RunE:  runServe,
}

func init() {
	viper.SetDefault("serve.addr", ":8080")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides config/env)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadDBConfig()
	repo, err := storage.OpenSQLite(cfg.Path)
	if err != nil {
		return fmt.Errorf("chemca: open storage at %s: %w", cfg.Path, err)
	}
	defer repo.Close()

	addr := serveAddr
	if addr == "" {
		addr = viper.GetString("serve.addr")
	}

	server := httpapi.NewServer(repo, log)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("chemca: serving on %s (db=%s)", addr, cfg.dsn())
	return httpServer.ListenAndServe()
}
