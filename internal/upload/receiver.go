package upload

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bamaao/bassinet-server/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bassinet-upload")

// ChunkStore is the durable record of which (file_hash, chunk_number)
// pairs have been received. Implemented by storage.MySQLClient.
type ChunkStore interface {
	AddChunkRecord(ctx context.Context, record *models.ChunkRecord) error
	GetChunkRecords(ctx context.Context, fileHash string) ([]*models.ChunkRecord, error)
}

// ChunkUpload is one incoming chunk of a resumable upload.
type ChunkUpload struct {
	FileName    string
	TotalChunks int
	ChunkNumber int
	ChunkSize   int64
	FileHash    string
	Payload     []byte
}

// Receiver accepts upload chunks one at a time, in any order, over any
// number of requests.
type Receiver struct {
	store   ChunkStore
	staging *Staging
}

// NewReceiver creates a new chunk receiver
func NewReceiver(store ChunkStore, staging *Staging) *Receiver {
	return &Receiver{store: store, staging: staging}
}

// ReceiveChunk validates and stages one chunk, then records it. The
// file write replaces any prior payload at the same (hash, number); the
// record insert is a no-op when the pair is already known, so retries
// and duplicates are harmless.
func (r *Receiver) ReceiveChunk(ctx context.Context, up ChunkUpload) error {
	ctx, span := tracer.Start(ctx, "receive_chunk",
		trace.WithAttributes(
			attribute.String("file_hash", up.FileHash),
			attribute.Int("chunk_number", up.ChunkNumber),
			attribute.Int("total_chunks", up.TotalChunks),
		),
	)
	defer span.End()

	if !ValidHash(up.FileHash) {
		return fmt.Errorf("%w: file hash must be 32 hex characters", models.ErrInvalidInput)
	}

	fileName := SanitizeFileName(up.FileName)
	if !AllowedExtension(fileName) {
		return fmt.Errorf("%w: unsupported file extension %q", models.ErrInvalidInput, FileExtension(fileName))
	}

	if len(up.Payload) == 0 {
		return fmt.Errorf("%w: empty chunk payload", models.ErrInvalidInput)
	}
	if up.ChunkNumber < 0 || up.TotalChunks <= 0 || up.ChunkNumber >= up.TotalChunks {
		return fmt.Errorf("%w: chunk number %d out of range for %d chunks", models.ErrInvalidInput, up.ChunkNumber, up.TotalChunks)
	}

	if err := r.staging.WriteChunk(up.FileHash, up.ChunkNumber, up.Payload); err != nil {
		span.RecordError(err)
		return err
	}

	record := &models.ChunkRecord{
		FileHash:    up.FileHash,
		ChunkNumber: up.ChunkNumber,
		ChunkSize:   up.ChunkSize,
		FileName:    fileName,
		TotalChunks: up.TotalChunks,
		CreatedAt:   time.Now(),
	}
	if err := r.store.AddChunkRecord(ctx, record); err != nil {
		span.RecordError(err)
		return err
	}

	log.Printf("Received chunk %d/%d for %s", up.ChunkNumber, up.TotalChunks, up.FileHash)
	return nil
}

// ListChunks returns the currently known chunk records for a hash,
// ordered by chunk number. Clients use it to skip already-received
// indices when resuming an upload.
func (r *Receiver) ListChunks(ctx context.Context, fileHash string) ([]*models.ChunkRecord, error) {
	ctx, span := tracer.Start(ctx, "list_chunks",
		trace.WithAttributes(attribute.String("file_hash", fileHash)),
	)
	defer span.End()

	if !ValidHash(fileHash) {
		return nil, fmt.Errorf("%w: file hash must be 32 hex characters", models.ErrInvalidInput)
	}
	return r.store.GetChunkRecords(ctx, fileHash)
}
