package main

import (
	"context"
	"fmt"
	"os"

	"labeldesk/config"
	"labeldesk/internal/logs"
	"labeldesk/internal/sequence"
	"labeldesk/server"

	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "labeldesk",
	Short:         "Site-scoped cable label and device inventory",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		var app server.App
		if err := app.Initialize(cfg); err != nil {
			return err
		}
		return app.Run()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := server.OpenDB(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := d.DB(); err == nil {
			defer sqlDB.Close()
		}
		logs.Logger.Info("schema is up to date")
		return nil
	},
}

var (
	allocSite  uint
	allocKind  string
	allocCount int
)

// allocateCmd reserves numbers ahead of time, e.g. for pre-printed label sheets.
var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Reserve sequence numbers for a site",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := sequence.ParseKind(allocKind)
		if err != nil {
			return err
		}
		d, err := server.OpenDB(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := d.DB(); err == nil {
			defer sqlDB.Close()
		}
		alloc := sequence.NewAllocator(d)
		for i := 0; i < allocCount; i++ {
			v, err := alloc.Allocate(context.Background(), allocSite, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: ./labeldesk.yaml, /etc/labeldesk/labeldesk.yaml)")

	allocateCmd.Flags().UintVar(&allocSite, "site", 0, "Site id")
	allocateCmd.Flags().StringVar(&allocKind, "kind", string(sequence.KindLabel), "Sequence kind: label or device")
	allocateCmd.Flags().IntVarP(&allocCount, "count", "n", 1, "How many numbers to reserve")
	_ = allocateCmd.MarkFlagRequired("site")

	rootCmd.AddCommand(serveCmd, migrateCmd, allocateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
