// Package main is the entry point for the claim resolution server.
//
// @title                       Claim Resolution Engine API
// @version                     1.0
// @description                 PHI-safe correction suggestions for rejected claims.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aurelianware/hipaa-attachments-sub007/cmd/claimresolver/docs"
	"github.com/aurelianware/hipaa-attachments-sub007/config"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/app"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/logging"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	configPath := flag.String("config", "", "Path to config.yaml (default: search ./config/config.yaml, ./config.yaml)")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Pretty output on a terminal, JSON otherwise
	slog.SetDefault(slog.New(logging.New(os.Stdout, logging.OptionsFromEnv())))

	slog.Info("starting claimresolver",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	result, err := config.LoadFile(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(context.Background(), result)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := application.Start(":" + result.Config.Server.Port); err != nil {
		slog.Error("server error", "error", err)
		_ = application.Shutdown(context.Background())
		os.Exit(1)
	}
}
