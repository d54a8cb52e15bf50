package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xhedge/vault-middleware/pkg/app"
	"github.com/xhedge/vault-middleware/pkg/app/gateway"
	"github.com/xhedge/vault-middleware/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = gateway.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Gateway exited with error: %v\n", err)
		os.Exit(1)
	}
}
