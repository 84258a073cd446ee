package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azuradaemon/hati/internal/config"
	"github.com/azuradaemon/hati/internal/db"
	"github.com/azuradaemon/hati/internal/httpapi"
	"github.com/azuradaemon/hati/internal/httpapi/handlers"
	"github.com/azuradaemon/hati/internal/store/rabbitmq"
	"github.com/azuradaemon/hati/internal/store/redisstore"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb := db.Connect(cfg.DBDSN)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Seed(ctx, gdb); err != nil {
		log.Printf("seed: %v", err)
	}

	// redis and rabbit are optional at boot; without them the API still
	// serves, minus the stream lock and async sends
	var rds *redisstore.Store
	if cfg.RedisAddr != "" {
		candidate := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := candidate.Ping(pctx); err != nil {
			log.Printf("redis unavailable, stream lock disabled: %v", err)
			_ = candidate.Close()
		} else {
			rds = candidate
			defer rds.Close()
		}
		cancel()
	}

	var rabbit *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("rabbit unavailable, async sends disabled: %v", err)
		} else {
			rabbit = p
			defer rabbit.Close()
		}
	}

	h := handlers.NewHandler(gdb, cfg, rds, rabbit)
	r := httpapi.NewRouter(h, cfg)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("server shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
