package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aicodegen/backend/internal/archive"
	"github.com/aicodegen/backend/internal/metrics"
	"github.com/aicodegen/backend/internal/models"
	"github.com/bytedance/sonic"
)

type generateService interface {
	Generate(ctx context.Context, req *models.GenerateRequest) (*models.Project, error)
	GenerateStream(ctx context.Context, req *models.GenerateRequest) (<-chan models.StreamChunk, error)
}

type GenerateHandler struct {
	service generateService
}

func NewGenerateHandler(service generateService) *GenerateHandler {
	return &GenerateHandler{
		service: service,
	}
}

// Generate godoc
// @Summary Generate a project and download it as a ZIP archive
// @Description Forwards the prompt to the chat model, parses the returned file manifest and streams back a ZIP.
// @Tags generate
// @Accept json
// @Produce application/zip
// @Param request body models.GenerateRequest true "Generate request"
// @Success 200 {file} binary "ZIP archive"
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /generate [post]
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("request validation failed: %s", err))
		return
	}
	req.Normalize()

	project, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		var extractErr *models.ExtractError
		if errors.As(err, &extractErr) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":        extractErr.Error(),
				"model_output": extractErr.Output,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("service error: %s", err))
		return
	}

	data, err := archive.Build(project.Files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to build archive: %s", err))
		return
	}
	metrics.ArchiveBytes(len(data))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.ProjectName+".zip"))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Header().Set("X-Generation-ID", project.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GenerateStream godoc
// @Summary Stream project generation
// @Description Streams model deltas while the project is generated, then a manifest of the parsed files (SSE).
// @Tags generate
// @Accept json
// @Produce text/event-stream
// @Param request body models.GenerateRequest true "Generate request"
// @Success 200 {object} models.StreamChunk "Stream of chunks (SSE)"
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /generate/stream [post]
func (h *GenerateHandler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("request validation failed: %s", err))
		return
	}
	req.Normalize()

	stream, err := h.service.GenerateStream(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher := http.NewResponseController(w)

	for chunk := range stream {
		if chunk.Err != nil {
			fmt.Fprintf(w, "event: error\ndata: %v\n\n", chunk.Err)
			flusher.Flush()
			return
		}

		if chunk.Done {
			manifest, err := sonic.Marshal(chunk.Files)
			if err != nil {
				fmt.Fprintf(w, "event: error\ndata: marshal error %v\n\n", err)
				flusher.Flush()
				return
			}
			fmt.Fprintf(w, "event: manifest\ndata: %s\n\n", manifest)
			fmt.Fprintf(w, "event: done\ndata: {}\n\n")
			flusher.Flush()
			return
		}

		data, err := sonic.Marshal(chunk)
		if err != nil {
			fmt.Fprintf(w, "event: error\ndata: marshal error %v\n\n", err)
			flusher.Flush()
			return
		}

		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
		flusher.Flush()
	}
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *GenerateHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "codegen",
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode: %s", err), http.StatusInternalServerError)
	}
}
