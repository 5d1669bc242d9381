package upload_test

import (
	"context"
	"sort"
	"sync"

	"github.com/bamaao/bassinet-server/internal/models"
)

// fakeChunkStore mimics the MySQL chunk store: insert-if-absent on the
// (file_hash, chunk_number) pair, listing ordered by chunk number.
type fakeChunkStore struct {
	mu      sync.Mutex
	records map[string]map[int]*models.ChunkRecord
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{records: make(map[string]map[int]*models.ChunkRecord)}
}

func (f *fakeChunkStore) AddChunkRecord(ctx context.Context, record *models.ChunkRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byNumber, ok := f.records[record.FileHash]
	if !ok {
		byNumber = make(map[int]*models.ChunkRecord)
		f.records[record.FileHash] = byNumber
	}
	if _, exists := byNumber[record.ChunkNumber]; exists {
		return nil // first write wins for metadata
	}
	clone := *record
	byNumber[record.ChunkNumber] = &clone
	return nil
}

func (f *fakeChunkStore) GetChunkRecords(ctx context.Context, fileHash string) ([]*models.ChunkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byNumber := f.records[fileHash]
	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	var out []*models.ChunkRecord
	for _, n := range numbers {
		out = append(out, byNumber[n])
	}
	return out, nil
}
