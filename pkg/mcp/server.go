package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"section-indexer/pkg/config"
	"section-indexer/pkg/index"
	"section-indexer/pkg/pipeline"
	"section-indexer/pkg/storage"
)

const (
	serverName    = "section-indexer"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Store      storage.Store
	Index      *index.SectionIndex
	Pipeline   *pipeline.Pipeline
	Logger     *logrus.Logger
}

// Server wraps the MCP server with section-indexer specific functionality
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Store == nil || cfg.Pipeline == nil {
		return nil, fmt.Errorf("Store and Pipeline are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	// Create the MCP server
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
	}

	// Register all tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// list_documents - List all known documents and their status
	listDocumentsTool := mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents known to the record store with their processing status"),
	)
	s.mcpServer.AddTool(listDocumentsTool, s.handleListDocuments)

	// flatten_document - Flatten one document in the background
	flattenDocumentTool := mcp.NewTool("flatten_document",
		mcp.WithDescription("Flatten a source document into section records in the background. Returns immediately with a job ID."),
		mcp.WithString("doc_path",
			mcp.Required(),
			mcp.Description("Document path relative to the configured input directory (e.g., 'guides/setup.md')"),
		),
		mcp.WithBoolean("incremental",
			mcp.Description("Skip the document if its content is unchanged since the last successful run"),
		),
	)
	s.mcpServer.AddTool(flattenDocumentTool, s.handleFlattenDocument)

	// get_job_status - Check status of a flatten job
	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status of a flatten job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by flatten_document"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	// get_section - Fetch one flattened record
	getSectionTool := mcp.NewTool("get_section",
		mcp.WithDescription("Fetch a flattened section record, including its hierarchy facets, as JSON"),
		mcp.WithString("doc_id",
			mcp.Required(),
			mcp.Description("Document id (as reported by list_documents)"),
		),
		mcp.WithString("section_id",
			mcp.Required(),
			mcp.Description("Section anchor id within the document"),
		),
	)
	s.mcpServer.AddTool(getSectionTool, s.handleGetSection)

	// search_sections - Full-text search over flattened sections
	searchSectionsTool := mcp.NewTool("search_sections",
		mcp.WithDescription("Search flattened section records using full-text query syntax"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (bleve query string syntax)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchSectionsTool, s.handleSearchSections)

	s.log.Infof("Registered %d MCP tools", 5)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.AppConfig.MCP.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.AppConfig.MCP.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.AppConfig.MCP.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	// Cancel any running jobs
	s.jobManager.CancelAll()
	return nil
}
