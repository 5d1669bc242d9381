package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/bamaao/bassinet-server/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MySQLClient wraps MySQL operations with tracing
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient initializes a new MySQL client
func NewMySQLClient(dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// AddChunkRecord inserts a chunk record if none exists for the
// (file_hash, chunk_number) pair. The unique key on that pair makes the
// insert race-free; a duplicate insert is a no-op and the metadata of
// the first successful chunk stays frozen.
func (mc *MySQLClient) AddChunkRecord(ctx context.Context, record *models.ChunkRecord) error {
	ctx, span := tracer.Start(ctx, "mysql.add_chunk_record",
		trace.WithAttributes(
			attribute.String("file_hash", record.FileHash),
			attribute.Int("chunk_number", record.ChunkNumber),
		),
	)
	defer span.End()

	query := `INSERT INTO chunk_list (file_hash, chunk_number, chunk_size, file_name, total_chunks, created_time)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE file_hash = file_hash`

	_, err := mc.db.ExecContext(ctx, query,
		record.FileHash, record.ChunkNumber, record.ChunkSize,
		record.FileName, record.TotalChunks, record.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunk record: %w", err)
	}

	span.SetAttributes(attribute.Bool("insert_success", true))
	return nil
}

// GetChunkRecords retrieves all chunk records for a hash ordered by chunk_number
func (mc *MySQLClient) GetChunkRecords(ctx context.Context, fileHash string) ([]*models.ChunkRecord, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_chunk_records",
		trace.WithAttributes(
			attribute.String("file_hash", fileHash),
		),
	)
	defer span.End()

	query := `SELECT file_hash, chunk_number, chunk_size, file_name, total_chunks, created_time
			  FROM chunk_list
			  WHERE file_hash = ?
			  ORDER BY chunk_number ASC`

	rows, err := mc.db.QueryContext(ctx, query, fileHash)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query chunk records: %w", err)
	}
	defer rows.Close()

	var records []*models.ChunkRecord
	for rows.Next() {
		var record models.ChunkRecord
		err := rows.Scan(
			&record.FileHash,
			&record.ChunkNumber,
			&record.ChunkSize,
			&record.FileName,
			&record.TotalChunks,
			&record.CreatedAt,
		)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan chunk record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating chunk records: %w", err)
	}

	span.SetAttributes(
		attribute.Int("record_count", len(records)),
		attribute.Bool("query_success", true),
	)
	return records, nil
}

// GetCollection retrieves the visibility fields of a collection.
// Returns nil with no error when the collection does not exist.
func (mc *MySQLClient) GetCollection(ctx context.Context, collectionID string) (*models.Collection, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_collection",
		trace.WithAttributes(
			attribute.String("collection_id", collectionID),
		),
	)
	defer span.End()

	query := `SELECT id, author, is_public, COALESCE(listing, 0) FROM collection WHERE id = ?`

	var coll models.Collection
	var isPublic, listing int
	err := mc.db.QueryRowContext(ctx, query, collectionID).Scan(
		&coll.ID,
		&coll.AuthorID,
		&isPublic,
		&listing,
	)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, nil
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	coll.IsPublic = isPublic == 1
	coll.Listing = listing == 1

	span.SetAttributes(attribute.Bool("found", true))
	return &coll, nil
}

// GetCollectionNFT retrieves the on-chain package linked to a collection.
// Returns nil with no error when the collection has no published NFT.
func (mc *MySQLClient) GetCollectionNFT(ctx context.Context, collectionID string) (*models.CollectionNFT, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_collection_nft",
		trace.WithAttributes(
			attribute.String("collection_id", collectionID),
		),
	)
	defer span.End()

	query := `SELECT collection_id, package_id FROM bassinet_nft WHERE collection_id = ?`

	var nft models.CollectionNFT
	err := mc.db.QueryRowContext(ctx, query, collectionID).Scan(&nft.CollectionID, &nft.PackageID)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, nil
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query collection nft: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &nft, nil
}

// GetMedia retrieves one video of a collection.
// Returns nil with no error when no such media exists.
func (mc *MySQLClient) GetMedia(ctx context.Context, mediaID, collectionID string) (*models.Media, error) {
	ctx, span := tracer.Start(ctx, "mysql.get_media",
		trace.WithAttributes(
			attribute.String("media_id", mediaID),
			attribute.String("collection_id", collectionID),
		),
	)
	defer span.End()

	query := `SELECT id, collection_id, title, video_path, file_hash
			  FROM media
			  WHERE id = ? AND collection_id = ?`

	var media models.Media
	err := mc.db.QueryRowContext(ctx, query, mediaID, collectionID).Scan(
		&media.ID,
		&media.CollectionID,
		&media.Title,
		&media.VideoPath,
		&media.FileHash,
	)

	if err == sql.ErrNoRows {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, nil
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query media: %w", err)
	}

	span.SetAttributes(attribute.Bool("found", true))
	return &media, nil
}
