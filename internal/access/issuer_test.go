package access_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bamaao/bassinet-server/internal/access"
	"github.com/bamaao/bassinet-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyCache struct {
	tokens []string
	err    error
}

func (f *fakeKeyCache) PutViewingKey(ctx context.Context, token string) error {
	if f.err != nil {
		return f.err
	}
	f.tokens = append(f.tokens, token)
	return nil
}

type fakeVerifier struct {
	owned  bool
	err    error
	calls  int
	wallet string
	pkgID  string
}

func (f *fakeVerifier) OwnsNFT(ctx context.Context, walletAddress, packageID string) (bool, error) {
	f.calls++
	f.wallet = walletAddress
	f.pkgID = packageID
	return f.owned, f.err
}

type fakeNFTStore struct {
	nft *models.CollectionNFT
	err error
}

func (f *fakeNFTStore) GetCollectionNFT(ctx context.Context, collectionID string) (*models.CollectionNFT, error) {
	return f.nft, f.err
}

func gatedCollection() models.Collection {
	return models.Collection{ID: "coll-1", AuthorID: "author-1", IsPublic: false, Listing: true}
}

func TestIssueViewingKey_PublicCollectionAlwaysIssues(t *testing.T) {
	cache := &fakeKeyCache{}
	verifier := &fakeVerifier{}
	issuer := access.NewIssuer(cache, verifier, &fakeNFTStore{})

	coll := models.Collection{ID: "coll-1", AuthorID: "author-1", IsPublic: true}
	token, err := issuer.IssueViewingKey(context.Background(), "someone-else", "", coll)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, []string{token}, cache.tokens)
	assert.Zero(t, verifier.calls, "public collections must not hit the ledger")
}

func TestIssueViewingKey_AuthorBypassesGating(t *testing.T) {
	cache := &fakeKeyCache{}
	verifier := &fakeVerifier{}
	issuer := access.NewIssuer(cache, verifier, &fakeNFTStore{})

	token, err := issuer.IssueViewingKey(context.Background(), "author-1", "", gatedCollection())

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Zero(t, verifier.calls)
}

func TestIssueViewingKey_GatedListedOwnedWallet(t *testing.T) {
	cache := &fakeKeyCache{}
	verifier := &fakeVerifier{owned: true}
	nfts := &fakeNFTStore{nft: &models.CollectionNFT{CollectionID: "coll-1", PackageID: "0xabc"}}
	issuer := access.NewIssuer(cache, verifier, nfts)

	token, err := issuer.IssueViewingKey(context.Background(), "viewer", "0xwallet", gatedCollection())

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, "0xwallet", verifier.wallet)
	assert.Equal(t, "0xabc", verifier.pkgID)
}

func TestIssueViewingKey_GatedListedUnownedWalletDenies(t *testing.T) {
	cache := &fakeKeyCache{}
	verifier := &fakeVerifier{owned: false}
	nfts := &fakeNFTStore{nft: &models.CollectionNFT{CollectionID: "coll-1", PackageID: "0xabc"}}
	issuer := access.NewIssuer(cache, verifier, nfts)

	_, err := issuer.IssueViewingKey(context.Background(), "viewer", "0xwallet", gatedCollection())

	assert.ErrorIs(t, err, models.ErrAccessDenied)
	assert.Empty(t, cache.tokens)
}

func TestIssueViewingKey_DenialCases(t *testing.T) {
	tests := []struct {
		name     string
		coll     models.Collection
		wallet   string
		verifier *fakeVerifier
		nfts     *fakeNFTStore
	}{
		{
			name:     "private unlisted collection",
			coll:     models.Collection{ID: "coll-1", AuthorID: "author-1"},
			wallet:   "0xwallet",
			verifier: &fakeVerifier{owned: true},
			nfts:     &fakeNFTStore{nft: &models.CollectionNFT{PackageID: "0xabc"}},
		},
		{
			name:     "listed but no wallet",
			coll:     gatedCollection(),
			wallet:   "",
			verifier: &fakeVerifier{owned: true},
			nfts:     &fakeNFTStore{nft: &models.CollectionNFT{PackageID: "0xabc"}},
		},
		{
			name:     "listed but no published NFT",
			coll:     gatedCollection(),
			wallet:   "0xwallet",
			verifier: &fakeVerifier{owned: true},
			nfts:     &fakeNFTStore{},
		},
		{
			name:     "NFT lookup error fails closed",
			coll:     gatedCollection(),
			wallet:   "0xwallet",
			verifier: &fakeVerifier{owned: true},
			nfts:     &fakeNFTStore{err: errors.New("db down")},
		},
		{
			name:     "verifier error fails closed",
			coll:     gatedCollection(),
			wallet:   "0xwallet",
			verifier: &fakeVerifier{err: models.ErrVerification},
			nfts:     &fakeNFTStore{nft: &models.CollectionNFT{PackageID: "0xabc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &fakeKeyCache{}
			issuer := access.NewIssuer(cache, tt.verifier, tt.nfts)

			_, err := issuer.IssueViewingKey(context.Background(), "viewer", tt.wallet, tt.coll)

			assert.ErrorIs(t, err, models.ErrAccessDenied)
			assert.Empty(t, cache.tokens, "no token may be cached on denial")
		})
	}
}

func TestIssueViewingKey_CacheFailureIsNotDenial(t *testing.T) {
	cache := &fakeKeyCache{err: errors.New("redis down")}
	issuer := access.NewIssuer(cache, &fakeVerifier{}, &fakeNFTStore{})

	coll := models.Collection{ID: "coll-1", IsPublic: true}
	_, err := issuer.IssueViewingKey(context.Background(), "viewer", "", coll)

	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrAccessDenied)
}

func TestIssueViewingKey_TokensAreUnique(t *testing.T) {
	cache := &fakeKeyCache{}
	issuer := access.NewIssuer(cache, &fakeVerifier{}, &fakeNFTStore{})
	coll := models.Collection{ID: "coll-1", IsPublic: true}

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := issuer.IssueViewingKey(context.Background(), "viewer", "", coll)
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
