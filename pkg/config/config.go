package config

import "time"

// AppConfig holds the global application configuration
type AppConfig struct {
	InputDir           string        `yaml:"input_dir"`                      // Directory scanned for source documents
	StateDir           string        `yaml:"state_dir"`                      // Base directory for the record database
	IndexDir           string        `yaml:"index_dir,omitempty"`            // Bleve index location; empty = in-memory index
	ContentSelector    string        `yaml:"content_selector,omitempty"`     // CSS selector for HTML document content
	NumWorkers         int           `yaml:"num_workers"`                    // Parallel document flattens per batch
	TokenizerEncoding  string        `yaml:"tokenizer_encoding,omitempty"`   // tiktoken encoding name
	MaxSectionTokens   int           `yaml:"max_section_tokens,omitempty"`   // Sections above this are sub-split before indexing (0 = never)
	SplitOverlapTokens int           `yaml:"split_overlap_tokens,omitempty"` // Overlap between index sub-splits
	ContinueOnError    bool          `yaml:"continue_on_error,omitempty"`    // Keep the batch going past failed documents
	PerDocTimeout      time.Duration `yaml:"per_doc_timeout,omitempty"`      // Timeout for one document (0 = no timeout)
	GlobalTimeout      time.Duration `yaml:"global_timeout,omitempty"`       // Timeout for the whole batch (0 = no timeout)
	MCP                MCPConfig     `yaml:"mcp,omitempty"`
}

// MCPConfig holds settings for the MCP tool server
type MCPConfig struct {
	Transport string `yaml:"transport,omitempty"` // "stdio" or "sse"
	Port      int    `yaml:"port,omitempty"`      // Port for the sse transport
}
