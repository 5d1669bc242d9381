package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/bamaao/bassinet-server/internal/models"
	"github.com/bamaao/bassinet-server/internal/upload"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MergeRequest identifies the upload to reassemble
type MergeRequest struct {
	FileHash string `json:"file_hash"`
}

// MergeResponse carries the merged media path relative to the media root
type MergeResponse struct {
	Path string `json:"path"`
}

// MergeHandler reassembles a completed upload
type MergeHandler struct {
	merger *upload.Merger
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(merger *upload.Merger) *MergeHandler {
	return &MergeHandler{merger: merger}
}

// ServeHTTP handles POST /media/merge
func (mh *MergeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, "merge_upload",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("file_hash", req.FileHash))

	relPath, err := mh.merger.Merge(ctx, req.FileHash)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrUnknownUpload):
			http.Error(w, "unknown upload", http.StatusNotFound)
		case errors.Is(err, models.ErrIncompleteUpload):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Printf("Merge failed for %s: %v", req.FileHash, err)
			http.Error(w, "merge failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(MergeResponse{Path: relPath})
}
