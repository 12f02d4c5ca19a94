// Package main provides the CareAssist console server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lightpath-health/careassist/internal/assist"
	"github.com/lightpath-health/careassist/internal/config"
	"github.com/lightpath-health/careassist/internal/llm"
	"github.com/lightpath-health/careassist/internal/metrics"
	"github.com/lightpath-health/careassist/internal/patient"
	"github.com/lightpath-health/careassist/internal/pinecone"
	"github.com/lightpath-health/careassist/internal/protocol"
	"github.com/lightpath-health/careassist/internal/server"
	"github.com/lightpath-health/careassist/internal/tasks"
	"github.com/lightpath-health/careassist/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()

	slog.Info("starting careassist-server", "port", cfg.Port, "model", cfg.LLMModel)

	index := pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey)

	model, err := llm.NewModel(cfg.OpenAIAPIKey, cfg.LLMModel)
	if err != nil {
		slog.Error("failed to create LLM model", "error", err)
		os.Exit(1)
	}

	patients, err := patient.NewStore(cfg.PatientsDir)
	if err != nil {
		slog.Error("failed to open patient store", "error", err)
		os.Exit(1)
	}

	cache, err := assist.NewCache(cfg.CacheDir)
	if err != nil {
		slog.Error("failed to open assistance cache", "error", err)
		os.Exit(1)
	}

	catalog, err := tasks.Load(cfg.TasksFile)
	if err != nil {
		slog.Error("failed to load task catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("task catalog loaded", "tasks", catalog.Len())

	collector := metrics.NewCollector()
	protocols := protocol.NewService(index, cfg.PineconeNamespace, cfg.RerankModel)
	assistSvc := assist.NewService(protocols, model, patients, cache, catalog, collector)

	handler := server.NewHandler(assistSvc, protocols, patients, catalog, collector)
	router := server.NewRouter(handler, web.Handler())

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second, // Long for LLM responses
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("console available", "url", fmt.Sprintf("http://localhost:%s/", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
