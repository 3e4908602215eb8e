package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"nmea-link/internal/config"
	"nmea-link/internal/web"
)

func main() {
	var configPath string
	var listen string
	flag.StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults when empty)")
	flag.StringVar(&listen, "listen", "", "Override web.listen")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}
	if listen != "" {
		cfg.Web.Listen = listen
	}

	logs := web.NewLogBuffer(cfg.Log.BufferLines)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("nmea-link starting")
	rt, err := newRuntime(cfg)
	if err != nil {
		log.Fatalf("gateway init failed: %v", err)
	}
	defer rt.Close()

	runServices(ctx,
		service{name: "gateway", run: rt.gateway.Run},
		service{name: "web server", run: func(ctx context.Context) error {
			log.Printf("web listening addr=%s", cfg.Web.Listen)
			return web.Serve(ctx, cfg.Web.Listen, rt.gateway, rt.status, logs)
		}},
	)
}

type service struct {
	name string
	run  func(ctx context.Context) error
}

// runServices runs every service until ctx is done or one of them fails, and
// returns only after all of them have returned. Collaborators shared with the
// services must not be closed before that.
func runServices(ctx context.Context, services ...service) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, s := range services {
		wg.Add(1)
		go func(s service) {
			defer wg.Done()
			if err := s.run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("%s stopped: %v", s.name, err)
				cancel()
			}
		}(s)
	}

	<-ctx.Done()
	log.Printf("nmea-link stopping")
	wg.Wait()
}
