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

// ChunkListRequest identifies the upload to inspect
type ChunkListRequest struct {
	FileHash string `json:"file_hash"`
}

// ChunkListHandler reports which chunks of an upload have been received,
// so clients can resume by skipping known indices.
type ChunkListHandler struct {
	receiver *upload.Receiver
}

// NewChunkListHandler creates a new chunk list handler
func NewChunkListHandler(receiver *upload.Receiver) *ChunkListHandler {
	return &ChunkListHandler{receiver: receiver}
}

// ServeHTTP handles POST /media/chunks
func (ch *ChunkListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, "list_chunks",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	var req ChunkListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("file_hash", req.FileHash))

	records, err := ch.receiver.ListChunks(ctx, req.FileHash)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, models.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Chunk list failed for %s: %v", req.FileHash, err)
		http.Error(w, "failed to list chunks", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []*models.ChunkRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(records)
}
