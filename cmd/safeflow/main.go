package main

import (
	"flag"

	"safeflow/config"
	"safeflow/core/appbootstrap"
	"safeflow/core/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	app, err := appbootstrap.Compose(cfg, logger)
	if err != nil {
		logger.Fatalf("compose: %v", err)
	}
	if err := app.Run(); err != nil {
		logger.Fatalf("run: %v", err)
	}
}
