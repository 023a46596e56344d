package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	branding "github.com/andreago-sparkensolutions/sparken-branding"
	"github.com/andreago-sparkensolutions/sparken-branding/internal/config"
	"github.com/andreago-sparkensolutions/sparken-branding/internal/logger"
	"github.com/andreago-sparkensolutions/sparken-branding/internal/server"
)

var version = "dev"

var configPath = flag.String("config", "", "Path to a YAML config file")
var ver = flag.Bool("version", false, "Print version and exit")

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Parse()
	if *ver {
		fmt.Printf("sparken-server %s\n", version)
		return
	}

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		FilePath:   cfg.Log.File,
		Production: cfg.IsProduction(),
		Debug:      cfg.Log.Debug,
		Console:    os.Stdout,
	})
	defer log.Sync()

	_, _ = maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))

	// 2. Build the converter
	opts, err := cfg.ConverterOptions(log)
	if err != nil {
		log.Fatal("invalid brand configuration", zap.Error(err))
	}
	conv := branding.New(opts...)
	caps := conv.Capabilities(context.Background())
	log.Info("converter ready", zap.Strings("engines", caps.Engines), zap.Int("max_upload", caps.MaxSize))

	// 3. Serve until interrupted
	srv := server.New(cfg, conv, log)
	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		log.Fatal("server stopped", zap.Error(err))
	case <-ctx.Done():
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}
