package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"section-indexer/pkg/config"
	"section-indexer/pkg/index"
	"section-indexer/pkg/pipeline"
	"section-indexer/pkg/process"
	"section-indexer/pkg/render"
	"section-indexer/pkg/storage"
)

func main() {
	// --- Early Initialization & Flags ---
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel) // Default level

	configFileFlag := flag.String("config", "config.yaml", "Path to YAML config file")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	freshFlag := flag.Bool("fresh", false, "Discard existing state DB and reprocess everything")
	incrementalFlag := flag.Bool("incremental", false, "Skip documents whose content is unchanged")
	flag.Parse()

	// --- Logger Configuration ---
	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	// --- Load Application Configuration ---
	log.Infof("Loading configuration from %s", *configFileFlag)
	yamlFile, err := os.ReadFile(*configFileFlag)
	if err != nil {
		log.Fatalf("Read config file '%s' error: %v", *configFileFlag, err)
	}
	var appCfg config.AppConfig
	err = yaml.Unmarshal(yamlFile, &appCfg)
	if err != nil {
		log.Fatalf("Parse config file '%s' error: %v", *configFileFlag, err)
	}

	// --- Validate Configuration ---
	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	log.Infof("Config: InputDir:%s, StateDir:%s, IndexDir:%s, Workers:%d",
		appCfg.InputDir, appCfg.StateDir, appCfg.IndexDir, appCfg.NumWorkers)

	// --- Tokenizer (optional; records carry -1 token counts without it) ---
	if err := process.InitTokenizer(appCfg.TokenizerEncoding); err != nil {
		log.Warnf("Tokenizer initialization failed, token counts disabled: %v", err)
	}

	// ===========================================================
	// == Setup Global Context & Signal Handling ==
	// ===========================================================
	var runCtx context.Context
	var cancelRun context.CancelFunc

	if appCfg.GlobalTimeout > 0 {
		log.Infof("Setting global batch timeout: %v", appCfg.GlobalTimeout)
		runCtx, cancelRun = context.WithTimeout(context.Background(), appCfg.GlobalTimeout)
	} else {
		runCtx, cancelRun = context.WithCancel(context.Background())
	}
	defer cancelRun()

	// Channel to listen for OS signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelRun() // Trigger shutdown via context cancellation

		// Allow force exit on second signal or timeout
		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second): // Graceful shutdown timeout
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()
	defer signal.Stop(sigChan)

	// ===========================================================
	// == Initialize Components ==
	// ===========================================================
	log.Info("Initializing components...")

	// --- Storage ---
	store, err := storage.NewBadgerStore(runCtx, appCfg.StateDir, *freshFlag, log.WithField("component", "storage"))
	if err != nil {
		log.Fatalf("Failed to initialize record DB: %v", err)
	}
	defer store.Close() // Ensure DB is closed on exit

	// Start DB GC goroutine
	go store.RunGC(runCtx, 10*time.Minute)

	// --- Search Index ---
	splitCfg := index.SplitConfig{
		MaxTokens:     appCfg.MaxSectionTokens,
		OverlapTokens: appCfg.SplitOverlapTokens,
	}
	sectionIndex, err := index.NewSectionIndex(appCfg.IndexDir, splitCfg, log.WithField("component", "index"))
	if err != nil {
		log.Fatalf("Failed to initialize search index: %v", err)
	}
	defer sectionIndex.Close()

	// --- Pipeline ---
	p := pipeline.NewPipeline(&appCfg, store, sectionIndex, render.NewPlainText(), log.WithField("component", "pipeline"))

	// ===========================================================
	// == Run Batch ==
	// ===========================================================
	batch, err := p.Run(runCtx, *incrementalFlag)

	if batch != nil {
		log.Infof("Batch %s: %d processed, %d skipped, %d failed, %d records",
			batch.BatchID, batch.DocsProcessed, batch.DocsSkipped, batch.DocsFailed, batch.RecordsEmitted)
	}

	// --- Exit ---
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Batch cancelled gracefully.")
			os.Exit(0)
		} else if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Batch timed out (global timeout).")
			os.Exit(1)
		} else {
			log.Errorf("Batch finished with error: %v", err)
			os.Exit(1)
		}
	}

	log.Info("Batch completed successfully.")
	os.Exit(0)
}
