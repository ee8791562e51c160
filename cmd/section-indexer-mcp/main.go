package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"section-indexer/pkg/config"
	"section-indexer/pkg/index"
	"section-indexer/pkg/mcp"
	"section-indexer/pkg/pipeline"
	"section-indexer/pkg/process"
	"section-indexer/pkg/render"
	"section-indexer/pkg/storage"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to YAML config file")
	transport := flag.String("transport", "", "Transport type (stdio, sse); overrides config")
	port := flag.Int("port", 0, "HTTP port for sse transport; overrides config")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: section-indexer-mcp [options]

Start an MCP (Model Context Protocol) server exposing the section store.

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Available MCP Tools:
  list_documents    List all known documents and their processing status
  flatten_document  Flatten one document into section records (background job)
  get_job_status    Check the status of a flatten job
  get_section       Fetch a flattened section record with hierarchy facets
  search_sections   Full-text search over flattened sections
`)
	}
	flag.Parse()

	os.Exit(doMcpServer(*configFile, *transport, *port, *logLevel, os.Stderr))
}

// loadConfig reads and parses the YAML config, applying validation defaults.
func loadConfig(path string) (*config.AppConfig, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config '%s': %w", path, err)
	}
	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parse config '%s': %w", path, err)
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return &cfg, warnings, nil
}

// doMcpServer is the testable implementation of the MCP server command
func doMcpServer(configPath, transport string, port int, logLevel string, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	log := logrus.New()
	log.SetOutput(stderr)
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %s\n", logLevel)
		return 1
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	appCfg, warnings, err := loadConfig(configPath)
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if transport != "" {
		appCfg.MCP.Transport = transport
	}
	if port > 0 {
		appCfg.MCP.Port = port
	}

	if err := process.InitTokenizer(appCfg.TokenizerEncoding); err != nil {
		log.Warnf("Tokenizer initialization failed, token counts disabled: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewBadgerStore(ctx, appCfg.StateDir, false, log.WithField("component", "storage"))
	if err != nil {
		fmt.Fprintf(stderr, "Error opening record DB: %v\n", err)
		return 1
	}
	defer store.Close()

	splitCfg := index.SplitConfig{
		MaxTokens:     appCfg.MaxSectionTokens,
		OverlapTokens: appCfg.SplitOverlapTokens,
	}
	sectionIndex, err := index.NewSectionIndex(appCfg.IndexDir, splitCfg, log.WithField("component", "index"))
	if err != nil {
		fmt.Fprintf(stderr, "Error opening search index: %v\n", err)
		return 1
	}
	defer sectionIndex.Close()

	p := pipeline.NewPipeline(appCfg, store, sectionIndex, render.NewPlainText(), log.WithField("component", "pipeline"))

	serverCfg := &mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Store:      store,
		Index:      sectionIndex,
		Pipeline:   p,
		Logger:     log,
	}
	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		log.Warn("Shutdown signal received")
		server.Shutdown(ctx)
		cancel()
	}()

	log.Infof("Starting MCP server (transport: %s)", appCfg.MCP.Transport)
	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
