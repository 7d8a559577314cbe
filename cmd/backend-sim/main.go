package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/botdash/internal/backendsim"
	"github.com/betbot/botdash/pkg/logger"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	defaultSeed, _ := strconv.ParseUint(getenv("BACKENDSIM_SEED", "1"), 10, 64)

	var (
		listenAddr = flag.String("listen", getenv("BACKENDSIM_LISTEN", ":5001"), "HTTP listen address")
		tick       = flag.Duration("tick", 2*time.Second, "price random-walk interval, 0 disables")
		seed       = flag.Uint64("seed", defaultSeed, "random seed")
		logLevel   = flag.String("log-level", getenv("LOG_LEVEL", "info"), "log level")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{Level: *logLevel}); err != nil {
		logrus.Fatalf("init logger failed: %v", err)
	}

	cfg := backendsim.DefaultConfig()
	cfg.TickInterval = *tick
	cfg.Seed = *seed
	sim := backendsim.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sim.Run(ctx)

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           sim.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("backend-sim listening on %s", *listenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	fmt.Println("backend-sim stopped")
}
