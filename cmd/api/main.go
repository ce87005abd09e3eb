package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/compare"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/config"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/httpapi"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/logging"
	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/probe"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	exec := probe.NewExecutor(logger, cfg.Timeout, cfg.TimelineTimeout, cfg.SecurityHeaders)
	battery := probe.NewBattery(exec, logger, cfg.Weights)
	comparator := compare.NewComparator(battery, logger, cfg.Concurrency)
	api := httpapi.NewServer(logger, battery, comparator)

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
