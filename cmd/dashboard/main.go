package main

import (
	"context"
	"log"

	"admin-dashboard-bff/internal/bootstrap"
	"admin-dashboard-bff/internal/config"
	"admin-dashboard-bff/internal/server"
	"admin-dashboard-bff/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer(cfg)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	// 4. Initialize Server
	// Session and tenant restoration run through the hydrate endpoint on
	// first dashboard mount, not at boot.
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
