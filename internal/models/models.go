package models

import "time"

// ChunkRecord is the durable bookkeeping entry for one received chunk.
// Unique per (FileHash, ChunkNumber); created on first sight, never mutated.
type ChunkRecord struct {
	FileHash    string    `json:"file_hash"`
	ChunkNumber int       `json:"chunk_number"`
	ChunkSize   int64     `json:"chunk_size"`
	FileName    string    `json:"file_name"`
	TotalChunks int       `json:"total_chunks"`
	CreatedAt   time.Time `json:"created_at"`
}

// Collection carries the visibility fields consulted when deciding
// whether a viewing key may be issued.
type Collection struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	IsPublic bool   `json:"is_public"`
	Listing  bool   `json:"listing"`
}

// CollectionNFT links a collection to the on-chain package that minted
// its access NFTs.
type CollectionNFT struct {
	CollectionID string `json:"collection_id"`
	PackageID    string `json:"package_id"`
}

// Media is a single video belonging to a collection.
type Media struct {
	ID           string `json:"id"`
	CollectionID string `json:"collection_id"`
	Title        string `json:"title"`
	VideoPath    string `json:"video_path"`
	FileHash     string `json:"file_hash"`
}

// NFTObject is one owned object returned by the ledger, already parsed
// into its type components.
type NFTObject struct {
	ObjectID   string `json:"object_id"`
	ObjectType string `json:"object_type"`
	PackageID  string `json:"package_id"`
	Module     string `json:"module"`
	Name       string `json:"name"`
}
