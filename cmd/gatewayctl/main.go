package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/gatewayctl/internal/config"
	"github.com/danmuck/gatewayctl/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a gatewayctl TOML config (optional)")
	envPath := flag.String("env", ".env", "dotenv file loaded before the environment overlay")
	flag.Parse()

	logging.ConfigureRuntime()
	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "gatewayctl: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gatewayctl: %v\n", err)
		os.Exit(1)
	}
	svc, err := newService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gatewayctl: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatewayctl: %v\n", err)
		os.Exit(1)
	}
}
