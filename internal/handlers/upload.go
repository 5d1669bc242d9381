package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/bamaao/bassinet-server/internal/models"
	"github.com/bamaao/bassinet-server/internal/upload"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bassinet-handlers")

// maxChunkMemory bounds the in-memory part of multipart parsing.
const maxChunkMemory = 32 << 20

// UploadHandler accepts one chunk of a resumable upload per request
type UploadHandler struct {
	receiver *upload.Receiver
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(receiver *upload.Receiver) *UploadHandler {
	return &UploadHandler{receiver: receiver}
}

// ServeHTTP handles POST /media/chunk with multipart fields
// fileName, totalChunks, chunkNumber, chunkSize, md5 and chunk.
func (uh *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, "upload_chunk",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if err := r.ParseMultipartForm(maxChunkMemory); err != nil {
		http.Error(w, "malformed multipart request", http.StatusBadRequest)
		return
	}

	fileName := r.FormValue("fileName")
	fileHash := r.FormValue("md5")
	if fileName == "" || fileHash == "" {
		http.Error(w, "missing fileName or md5", http.StatusBadRequest)
		return
	}

	totalChunks, err := strconv.Atoi(r.FormValue("totalChunks"))
	if err != nil {
		http.Error(w, "invalid totalChunks", http.StatusBadRequest)
		return
	}
	chunkNumber, err := strconv.Atoi(r.FormValue("chunkNumber"))
	if err != nil {
		http.Error(w, "invalid chunkNumber", http.StatusBadRequest)
		return
	}
	chunkSize, err := strconv.ParseInt(r.FormValue("chunkSize"), 10, 64)
	if err != nil {
		http.Error(w, "invalid chunkSize", http.StatusBadRequest)
		return
	}

	part, _, err := r.FormFile("chunk")
	if err != nil {
		http.Error(w, "missing chunk payload", http.StatusBadRequest)
		return
	}
	defer part.Close()

	payload, err := io.ReadAll(part)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "failed to read chunk payload", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(
		attribute.String("file_hash", fileHash),
		attribute.Int("chunk_number", chunkNumber),
	)

	err = uh.receiver.ReceiveChunk(ctx, upload.ChunkUpload{
		FileName:    fileName,
		TotalChunks: totalChunks,
		ChunkNumber: chunkNumber,
		ChunkSize:   chunkSize,
		FileHash:    fileHash,
		Payload:     payload,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, models.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Chunk upload failed: %v", err)
		http.Error(w, "failed to store chunk", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("chunk %d received", chunkNumber),
	})
}
