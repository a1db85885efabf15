package main

import (
	"context"
	"flag"
	"log"

	"github.com/MrEthical07/pinauth/internal/app/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/pinauth.yaml", "path to the service configuration file")
	flag.Parse()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap api runtime: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run api: %v", err)
	}
}
