package access

import (
	"context"
	"fmt"
	"log"

	"github.com/bamaao/bassinet-server/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bassinet-access")

// KeyCache holds issued viewing keys until their TTL lapses.
// Implemented by storage.RedisClient.
type KeyCache interface {
	PutViewingKey(ctx context.Context, token string) error
}

// OwnershipVerifier checks whether a wallet holds an access NFT minted
// by a package. Implemented by sui.Client.
type OwnershipVerifier interface {
	OwnsNFT(ctx context.Context, walletAddress, packageID string) (bool, error)
}

// NFTStore resolves the on-chain package linked to a collection.
// Implemented by storage.MySQLClient.
type NFTStore interface {
	GetCollectionNFT(ctx context.Context, collectionID string) (*models.CollectionNFT, error)
}

// Issuer decides whether a requester may view a collection's media and,
// on success, mints a short-lived viewing key.
type Issuer struct {
	cache    KeyCache
	verifier OwnershipVerifier
	nfts     NFTStore
}

// NewIssuer creates a new capability issuer
func NewIssuer(cache KeyCache, verifier OwnershipVerifier, nfts NFTStore) *Issuer {
	return &Issuer{cache: cache, verifier: verifier, nfts: nfts}
}

// IssueViewingKey evaluates the access rules in order, first match wins:
//
//  1. the collection is public, or the requester is its author: issue.
//  2. the collection is listed for minting and the requester supplied a
//     wallet: issue iff the wallet holds the collection's access NFT.
//  3. otherwise: deny.
//
// Ledger faults deny, never grant. Every denial surfaces as
// models.ErrAccessDenied regardless of cause.
func (i *Issuer) IssueViewingKey(ctx context.Context, requesterID, wallet string, coll models.Collection) (string, error) {
	ctx, span := tracer.Start(ctx, "issue_viewing_key",
		trace.WithAttributes(attribute.String("collection_id", coll.ID)),
	)
	defer span.End()

	if coll.IsPublic || requesterID == coll.AuthorID {
		return i.mint(ctx)
	}

	if coll.Listing && wallet != "" {
		nft, err := i.nfts.GetCollectionNFT(ctx, coll.ID)
		if err != nil {
			span.RecordError(err)
			log.Printf("Collection NFT lookup failed for %s: %v", coll.ID, err)
			return "", models.ErrAccessDenied
		}
		if nft == nil {
			return "", models.ErrAccessDenied
		}

		owned, err := i.verifier.OwnsNFT(ctx, wallet, nft.PackageID)
		if err != nil {
			// Fail closed on verification faults.
			span.RecordError(err)
			log.Printf("Ownership verification failed for collection %s: %v", coll.ID, err)
			return "", models.ErrAccessDenied
		}
		if owned {
			return i.mint(ctx)
		}
	}

	return "", models.ErrAccessDenied
}

// mint generates a fresh random token and registers it in the shared
// cache. The token is a bearer credential: once issued it admits any
// gated media until its TTL lapses.
func (i *Issuer) mint(ctx context.Context) (string, error) {
	token := uuid.New().String()
	if err := i.cache.PutViewingKey(ctx, token); err != nil {
		return "", fmt.Errorf("failed to register viewing key: %w", err)
	}
	return token, nil
}
