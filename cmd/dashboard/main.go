package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/dashboard"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/metrics"
	"github.com/betbot/botdash/internal/screens"
	"github.com/betbot/botdash/pkg/config"
	"github.com/betbot/botdash/pkg/logger"
	"github.com/betbot/botdash/pkg/shutdown"
)

func main() {
	// .env 可选，缺失时只用真实环境变量
	_ = godotenv.Load()

	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	title := flag.String("title", "Trading Bot Dashboard", "header title")
	tab := flag.Int("tab", 1, "initial tab (1-4)")
	headless := flag.Bool("headless", false, "log view updates instead of drawing the TUI")
	debugAddr := flag.String("debug-addr", os.Getenv("BOTDASH_DEBUG_ADDR"), "expvar/pprof listen address, empty disables")
	flag.Parse()

	if *configPath != "" {
		config.SetConfigPath(*configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	tui := !*headless && dashboard.IsTerminal()
	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
		FileOnly:   tui,
	}); err != nil {
		logrus.Errorf("初始化日志失败: %v", err)
		os.Exit(1)
	}
	logger.Infof("botdash starting: api=%s trading_api=%s", cfg.APIURL, cfg.TradingAPIURL)

	backend := api.NewBackend(cfg.APIURL, cfg.TradingAPIURL, cfg.RequestTimeout)
	in := intents.New(backend, intents.Config{
		TradeQuantity:     cfg.TradeQuantity,
		TradeSubmitPerSec: cfg.TradeSubmitPerSec,
	})
	set := screens.NewSet(backend, in, screens.Intervals{
		Status:       cfg.StatusPollInterval,
		Bots:         cfg.BotsPollInterval,
		Intelligence: cfg.IntelligencePollInterval,
	}, cfg.DefaultBot)
	dash := dashboard.New(set, dashboard.Options{Title: *title, InitialTab: *tab - 1})

	shutdownMgr := shutdown.NewManager()
	shutdownMgr.OnShutdown(func(context.Context) { dash.Stop() })
	shutdownMgr.OnShutdown(func(context.Context) { set.UnmountAll() })

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if *debugAddr != "" {
		if _, err := metrics.StartAsync(rootCtx, *debugAddr); err != nil {
			logger.Warnf("debug server disabled: %v", err)
		}
	}

	g, gctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		// UI 退出即整个进程退出
		defer rootCancel()
		if tui {
			return dash.Run(gctx)
		}
		return dash.RunHeadless(gctx)
	})
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(sigChan)
		select {
		case <-gctx.Done():
		case sig := <-sigChan:
			logger.Infof("收到信号 %v，正在关闭...", sig)
			rootCancel()
		}
		return nil
	})

	runErr := g.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	shutdownMgr.Shutdown(shutdownCtx)

	if runErr != nil {
		logger.Errorf("dashboard exited with error: %v", runErr)
		os.Exit(1)
	}
	logger.Info("botdash stopped")
}
