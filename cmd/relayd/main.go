package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"matchlobby/internal/httpapi"
	"matchlobby/internal/relayserver"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	log := newLogger(os.Getenv("RELAYD_LOG"))
	defer log.Sync()

	addr := os.Getenv("RELAYD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ctx := context.Background()
	reg := relayserver.NewRegistry(ctx, log)

	// Build the router *with* the registry injected
	handler := httpapi.SetupRoutes(reg, log)

	log.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(mode string) *zap.Logger {
	if mode == "dev" {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}
