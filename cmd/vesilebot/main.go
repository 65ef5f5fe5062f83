package main

import (
	"log"

	"github.com/vesilelab/vesilebot/bot/app"
	botconfig "github.com/vesilelab/vesilebot/bot/config"
	"github.com/vesilelab/vesilebot/core/buildinfo"
	"github.com/vesilelab/vesilebot/core/cmd"
)

func main() {
	log.Printf("vesilebot %s (%s)", buildinfo.Version, buildinfo.Commit)

	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "./config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return botconfig.Load(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			return app.New(carrier.(*botconfig.Config))
		},
	})
	if err != nil {
		log.Fatalf("vesilebot: %v", err)
	}
}
