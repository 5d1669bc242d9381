package upload

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/bamaao/bassinet-server/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Archiver publishes a merged media file to long-term object storage.
// Implemented by storage.MinioClient.
type Archiver interface {
	ArchiveMedia(ctx context.Context, objectKey, filePath string) error
}

// Merger reassembles a completed upload into a single media file.
type Merger struct {
	store    ChunkStore
	staging  *Staging
	archiver Archiver // optional

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMerger creates a new merger. archiver may be nil when archival is
// disabled.
func NewMerger(store ChunkStore, staging *Staging, archiver Archiver) *Merger {
	return &Merger{
		store:    store,
		staging:  staging,
		archiver: archiver,
		locks:    make(map[string]*sync.Mutex),
	}
}

// hashLock returns the advisory lock serializing merges of one hash.
func (m *Merger) hashLock(fileHash string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[fileHash]
	if !ok {
		l = &sync.Mutex{}
		m.locks[fileHash] = l
	}
	return l
}

// Merge concatenates all staged chunks of a completed upload into one
// output file and returns its path relative to the staging root. The
// merge runs at most once per hash: an existing output short-circuits,
// and a per-hash lock keeps concurrent calls from both writing. Output
// is written to a temporary path and renamed into place so a failed
// merge never leaves a file the idempotence check would mistake for a
// completed one.
func (m *Merger) Merge(ctx context.Context, fileHash string) (string, error) {
	ctx, span := tracer.Start(ctx, "merge_chunks",
		trace.WithAttributes(attribute.String("file_hash", fileHash)),
	)
	defer span.End()

	if !ValidHash(fileHash) {
		return "", fmt.Errorf("%w: file hash must be 32 hex characters", models.ErrInvalidInput)
	}

	records, err := m.store.GetChunkRecords(ctx, fileHash)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: no chunks recorded for %s", models.ErrUnknownUpload, fileHash)
	}

	total := records[0].TotalChunks
	if len(records) != total {
		return "", fmt.Errorf("%w: have %d of %d chunks", models.ErrIncompleteUpload, len(records), total)
	}

	ext := FileExtension(records[0].FileName)
	relPath := m.staging.MergedRelPath(fileHash, ext)
	outPath := m.staging.MergedPath(fileHash, ext)

	lock := m.hashLock(fileHash)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(outPath); err == nil {
		span.SetAttributes(attribute.Bool("already_merged", true))
		return relPath, nil
	}

	if err := m.concat(ctx, fileHash, records, outPath); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", models.ErrMergeFailed, err)
	}

	span.SetAttributes(attribute.Int("chunk_count", total))
	log.Printf("Merged %d chunks into %s", total, relPath)

	m.archive(ctx, relPath, outPath)
	return relPath, nil
}

func (m *Merger) concat(ctx context.Context, fileHash string, records []*models.ChunkRecord, outPath string) error {
	ctx, span := tracer.Start(ctx, "concat_chunks",
		trace.WithAttributes(attribute.Int("chunk_count", len(records))),
	)
	defer span.End()

	tmpPath := outPath + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	for _, record := range records {
		if _, err := m.staging.AppendChunk(out, fileHash, record.ChunkNumber); err != nil {
			span.RecordError(err)
			out.Close()
			os.Remove(tmpPath)
			return err
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to publish output file: %w", err)
	}
	return nil
}

// archive is best-effort: a failed archive upload never fails the merge.
func (m *Merger) archive(ctx context.Context, objectKey, filePath string) {
	if m.archiver == nil {
		return
	}
	if err := m.archiver.ArchiveMedia(ctx, objectKey, filePath); err != nil {
		log.Printf("Warning: failed to archive %s: %v", objectKey, err)
	}
}
