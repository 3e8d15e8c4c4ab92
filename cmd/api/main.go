package main

import (
	"log"

	"github.com/janajenn/capstone2-sub006/internal/app"
	"github.com/janajenn/capstone2-sub006/internal/bootstrap"
	"github.com/janajenn/capstone2-sub006/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	cfg := app.LoadConfig()
	application, err := app.BuildApp(cfg)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer application.Close()

	readTimeout, writeTimeout, idleTimeout := app.ServerTimeouts()
	bootstrap.StartHTTPServer(
		application.Router,
		bootstrap.ServerConfig{
			Port:         cfg.Port,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		bootstrap.NewStdoutAuditLogger(),
	)
}
