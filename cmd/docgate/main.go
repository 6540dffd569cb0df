package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/docgate-app/docgate/internal/api"
	"github.com/docgate-app/docgate/internal/config"
	"github.com/docgate-app/docgate/internal/pdftext"
	"github.com/docgate-app/docgate/internal/pipeline"
	"github.com/docgate-app/docgate/internal/remoteocr"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Docgate %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Date: %s\n", BuildDate)
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().
		Str("version", Version).
		Str("commit", Commit).
		Msg("Starting Docgate")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	extractor := pdftext.New()
	metrics := remoteocr.NewMetrics()

	registry := pipeline.NewRegistry()
	registry.Register(pipeline.NewLocalPDFParser(extractor))

	if cfg.RemoteOCR.Engine != "" {
		gateway := remoteocr.NewGateway(cfg.RemoteOCR.EngineConfig(), extractor, metrics)
		registry.Register(gateway)
	} else {
		log.Info().Msg("No remote OCR engine configured, running with the local fallback only")
	}

	server := api.NewServer(cfg, registry)

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("Shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("address", cfg.Server.Address).Msg("Listening")
	if err := server.Listen(cfg.Server.Address); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
