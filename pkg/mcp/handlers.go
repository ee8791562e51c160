package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleListDocuments handles the list_documents tool
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.cfg.Store.ListDocs()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list documents: %v", err)), nil
	}

	// Get sorted keys for consistent output
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]map[string]interface{}, 0, len(entries))
	for _, key := range keys {
		entry := entries[key]
		docInfo := map[string]interface{}{
			"doc_id":      key,
			"status":      entry.Status.String(),
			"source_path": entry.SourcePath,
		}
		if entry.RecordCount > 0 {
			docInfo["record_count"] = entry.RecordCount
		}
		if entry.ErrorType != "" {
			docInfo["error_type"] = entry.ErrorType
		}
		if !entry.ProcessedAt.IsZero() {
			docInfo["processed_at"] = entry.ProcessedAt.Format(time.RFC3339)
		}
		if s.jobManager.IsRunning(entry.SourcePath) {
			docInfo["job"] = "running"
		}
		docs = append(docs, docInfo)
	}

	result := map[string]interface{}{
		"documents":   docs,
		"config_path": s.cfg.ConfigPath,
		"total_docs":  len(docs),
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleFlattenDocument handles the flatten_document tool
func (s *Server) handleFlattenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docPath := request.GetString("doc_path", "")
	if docPath == "" {
		return mcp.NewToolResultError("doc_path parameter is required"), nil
	}

	incremental := request.GetBool("incremental", false)

	alreadyRunning := s.jobManager.IsRunning(docPath)
	job, err := s.jobManager.CreateJob(docPath, incremental)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create job: %v", err)), nil
	}

	// An already pending/running job for this path is returned as-is
	if !alreadyRunning {
		go s.runFlattenJob(job)
	}

	result := map[string]interface{}{
		"job_id":      job.ID,
		"doc_path":    job.DocPath,
		"status":      string(job.Status),
		"incremental": job.Incremental,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runFlattenJob executes a flatten job in the background
func (s *Server) runFlattenJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("PANIC in flatten job %s: %v", job.ID, r)
			s.jobManager.UpdateStatus(job.ID, JobStatusFailed, 0, fmt.Sprintf("panic: %v", r))
		}
	}()

	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, 0, "")
	jobCtx := s.jobManager.GetContext(job.ID)

	result := s.cfg.Pipeline.ProcessOne(jobCtx, job.DocPath, job.Incremental)
	if result.Error != nil {
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, 0, result.Error.Error())
		return
	}
	s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, result.Records, "")
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":     job.ID,
		"doc_path":   job.DocPath,
		"status":     string(job.Status),
		"started_at": job.StartedAt.Format(time.RFC3339),
		"records":    job.Records,
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
	}
	if job.ErrorMessage != "" {
		result["error"] = job.ErrorMessage
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetSection handles the get_section tool
func (s *Server) handleGetSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID := request.GetString("doc_id", "")
	if docID == "" {
		return mcp.NewToolResultError("doc_id parameter is required"), nil
	}
	sectionID := request.GetString("section_id", "")
	if sectionID == "" {
		return mcp.NewToolResultError("section_id parameter is required"), nil
	}

	record, err := s.cfg.Store.GetRecord(docID, sectionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch record: %v", err)), nil
	}
	if record == nil {
		return mcp.NewToolResultError(fmt.Sprintf("section '%s' not found in doc '%s'", sectionID, docID)), nil
	}

	// The record marshals into the downstream contract shape directly
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode record: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleSearchSections handles the search_sections tool
func (s *Server) handleSearchSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg.Index == nil {
		return mcp.NewToolResultError("search index is not configured"), nil
	}

	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	hits, err := s.cfg.Index.Search(query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		results = append(results, map[string]interface{}{
			"id":         hit.ID,
			"doc_id":     hit.DocID,
			"section_id": hit.SectionID,
			"name":       hit.Name,
			"score":      hit.Score,
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_results": len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to format response: %v"}`, err)
	}
	return string(bytes)
}
