package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/vectorbridge/internal/core/domain"
	"github.com/custodia-labs/vectorbridge/internal/core/ports/driving"
	"github.com/custodia-labs/vectorbridge/internal/core/services"
)

// maxBodySize bounds request bodies (1MB).
const maxBodySize = 1 << 20

// --- Wire types ---

type connectRequest struct {
	SourceType string            `json:"source_type"`
	Config     map[string]string `json:"config"`
}

type connectionResponse struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	LastUsed   time.Time      `json:"last_used"`
}

type ingestRequest struct {
	ConnectionID string   `json:"connection_id"`
	FileRefs     []string `json:"file_refs"`

	// SourceType is optional; when set it must match the connection.
	SourceType     string         `json:"source_type,omitempty"`
	CollectionName string         `json:"collection_name,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type fileProgressResponse struct {
	FileRef       string `json:"file_ref"`
	FileName      string `json:"file_name"`
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunks_created"`
	Error         string `json:"error,omitempty"`
}

type jobResponse struct {
	JobID          string                 `json:"job_id"`
	ConnectionID   string                 `json:"connection_id"`
	SourceType     string                 `json:"source_type"`
	CollectionName string                 `json:"collection_name"`
	Status         string                 `json:"status"`
	TotalFiles     int                    `json:"total_files"`
	ProcessedFiles int                    `json:"processed_files"`
	FailedFiles    int                    `json:"failed_files"`
	Files          []fileProgressResponse `json:"files"`
	StartedAt      time.Time              `json:"started_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
}

type batchEntryResponse struct {
	Job   *jobResponse `json:"job,omitempty"`
	Error string       `json:"error,omitempty"`
}

type sourceResponse struct {
	Type        string              `json:"type"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	ConfigKeys  []configKeyResponse `json:"config_keys"`
}

type configKeyResponse struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Secret      bool   `json:"secret"`
}

func toConnectionResponse(conn *domain.Connection) connectionResponse {
	return connectionResponse{
		ID:         conn.ID,
		SourceType: string(conn.SourceType),
		Metadata:   conn.Metadata,
		CreatedAt:  conn.CreatedAt,
		LastUsed:   conn.LastUsed,
	}
}

func toJobResponse(job *domain.Job) *jobResponse {
	files := make([]fileProgressResponse, len(job.Progress))
	for i, p := range job.Progress {
		files[i] = fileProgressResponse{
			FileRef:       p.FileRef,
			FileName:      p.FileName,
			Status:        string(p.Status),
			ChunksCreated: p.ChunksCreated,
			Error:         p.Error,
		}
	}
	resp := &jobResponse{
		JobID:          job.ID,
		ConnectionID:   job.ConnectionID,
		SourceType:     string(job.SourceType),
		CollectionName: job.CollectionName,
		Status:         string(job.Status),
		TotalFiles:     len(job.Progress),
		ProcessedFiles: job.CompletedFiles(),
		FailedFiles:    job.FailedFiles(),
		Files:          files,
		StartedAt:      job.StartedAt,
	}
	if !job.CompletedAt.IsZero() {
		completed := job.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	conns, err := s.connections.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sources := make([]string, 0)
	for _, desc := range services.SourceCatalog() {
		sources = append(sources, string(desc.Type))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"active_connections": len(conns),
		"sources":            sources,
	})
}

func (s *Server) handleListSources(w http.ResponseWriter, _ *http.Request) {
	catalog := services.SourceCatalog()
	sources := make([]sourceResponse, 0, len(catalog))
	for _, desc := range catalog {
		keys := make([]configKeyResponse, 0, len(desc.ConfigKeys))
		for _, key := range desc.ConfigKeys {
			keys = append(keys, configKeyResponse{
				Key:         key.Key,
				Label:       key.Label,
				Description: key.Description,
				Required:    key.Required,
				Secret:      key.Secret,
			})
		}
		sources = append(sources, sourceResponse{
			Type:        string(desc.Type),
			Name:        desc.Name,
			Description: desc.Description,
			ConfigKeys:  keys,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	conn, err := s.connections.Connect(r.Context(), domain.SourceType(req.SourceType), req.Config)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toConnectionResponse(conn))
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.connections.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]connectionResponse, 0, len(conns))
	for i := range conns {
		out = append(out, toConnectionResponse(&conns[i]))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"connections": out})
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connections.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toConnectionResponse(conn))
}

func (s *Server) handleRemoveConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.connections.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.connections.ListFiles(r.Context(), r.PathValue("id"), browseOptions(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleSearchFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, fmt.Errorf("%w: query parameter q is required", domain.ErrInvalidInput))
		return
	}
	files, err := s.connections.SearchFiles(r.Context(), r.PathValue("id"), query, browseOptions(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	job, err := s.createJob(r, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) createJob(r *http.Request, req ingestRequest) (*domain.Job, error) {
	if req.SourceType != "" {
		conn, err := s.connections.Get(r.Context(), req.ConnectionID)
		if err != nil {
			return nil, err
		}
		if string(conn.SourceType) != req.SourceType {
			return nil, fmt.Errorf("%w: source_type %q does not match connection %s (%s)",
				domain.ErrInvalidInput, req.SourceType, conn.ID, conn.SourceType)
		}
	}
	return s.jobs.CreateJob(r.Context(), driving.CreateJobRequest{
		ConnectionID:   req.ConnectionID,
		FileRefs:       req.FileRefs,
		CollectionName: req.CollectionName,
		Metadata:       req.Metadata,
	})
}

// handleIngestBatch accepts several ingestion requests in one call.
// Entries are independent: each gets its own job or its own error.
func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []ingestRequest
	if !s.decodeBody(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		s.writeError(w, fmt.Errorf("%w: batch is empty", domain.ErrEmptyBatch))
		return
	}

	entries := make([]batchEntryResponse, len(reqs))
	for i, req := range reqs {
		job, err := s.createJob(r, req)
		if err != nil {
			entries[i] = batchEntryResponse{Error: err.Error()}
			continue
		}
		entries[i] = batchEntryResponse{Job: toJobResponse(job)}
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"results": entries})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.GetStatus(r.Context(), r.PathValue("jobID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) handleCollectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.jobs.CollectionStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"collections": stats})
}

// --- Helpers ---

func browseOptions(r *http.Request) driving.BrowseOptions {
	query := r.URL.Query()
	opts := driving.BrowseOptions{Container: query.Get("container")}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil && offset > 0 {
		opts.Offset = offset
	}
	return opts
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}
