package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/lazharichir/trumpout/config"
	"github.com/lazharichir/trumpout/server"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log := cfg.NewLogger()
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	log.WithField("game", cfg.Game).Info("starting TrumpOUT backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.NewServer(cfg, log)
	if err := s.Start(ctx, cfg.Port); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
