package config

import (
	"fmt"

	"section-indexer/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Required: InputDir
	if c.InputDir == "" {
		return nil, fmt.Errorf("%w: input_dir is required", utils.ErrConfigValidation)
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './indexer_state'")
		c.StateDir = "./indexer_state"
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// MaxSectionTokens / SplitOverlapTokens
	if c.MaxSectionTokens < 0 {
		warnings = append(warnings, "max_section_tokens cannot be negative, disabling index sub-splitting")
		c.MaxSectionTokens = 0
	}
	if c.SplitOverlapTokens < 0 {
		warnings = append(warnings, "split_overlap_tokens cannot be negative, setting to 0")
		c.SplitOverlapTokens = 0
	}
	if c.MaxSectionTokens > 0 && c.SplitOverlapTokens >= c.MaxSectionTokens {
		warnings = append(warnings, fmt.Sprintf(
			"split_overlap_tokens (%d) >= max_section_tokens (%d), setting overlap to %d",
			c.SplitOverlapTokens, c.MaxSectionTokens, c.MaxSectionTokens/4))
		c.SplitOverlapTokens = c.MaxSectionTokens / 4
	}

	// Timeouts
	if c.PerDocTimeout < 0 {
		warnings = append(warnings, "per_doc_timeout cannot be negative, disabling timeout")
		c.PerDocTimeout = 0
	}
	if c.GlobalTimeout < 0 {
		warnings = append(warnings, "global_timeout cannot be negative, disabling timeout")
		c.GlobalTimeout = 0
	}

	// MCP settings
	if c.MCP.Transport == "" {
		c.MCP.Transport = "stdio"
	}
	if c.MCP.Transport != "stdio" && c.MCP.Transport != "sse" {
		return nil, fmt.Errorf("%w: mcp transport must be 'stdio' or 'sse', got '%s'",
			utils.ErrConfigValidation, c.MCP.Transport)
	}
	if c.MCP.Transport == "sse" && c.MCP.Port <= 0 {
		warnings = append(warnings, "mcp port not set for sse transport, defaulting to 8377")
		c.MCP.Port = 8377
	}

	return warnings, nil
}
