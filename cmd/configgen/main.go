package main

import (
	"flag"
	"log"

	"github.com/danmuck/gatewayctl/internal/config"
)

const defaultPath = "cmd/gatewayctl/config.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	envPath := flag.String("env", ".env", "dotenv file applied before validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if err := config.LoadDotEnv(*envPath); err != nil {
			log.Fatal(err)
		}
		if _, err := config.Load(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated gatewayctl config at %s", *input)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote gatewayctl config template to %s", *output)
}
