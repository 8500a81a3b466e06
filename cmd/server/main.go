package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nantokaworks/safari-raffle/internal/env"
	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/shared/paths"
	"github.com/nantokaworks/safari-raffle/internal/webserver"
	"go.uber.org/zap"
)

func main() {
	// .env読込時のログを落とさないよう、環境変数だけ見て先にロガーを立てる
	debug, _ := strconv.ParseBool(os.Getenv("DEBUG_MODE"))
	logger.Init(debug)
	defer logger.Sync()

	env.LoadEnv()
	logger.Init(env.Value.DebugMode)

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to create data directories", zap.Error(err))
	}

	if _, err := localdb.SetupDB(paths.GetDBPath()); err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}
	defer localdb.CloseDB()

	if err := webserver.StartWebServer(env.Value.ServerPort); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	logger.Info("Safari raffle server started", zap.Int("port", env.Value.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := webserver.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown web server cleanly", zap.Error(err))
	}
}
