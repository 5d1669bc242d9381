package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/bamaao/bassinet-server/internal/models"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MediaStore resolves collections and their media.
// Implemented by storage.MySQLClient.
type MediaStore interface {
	GetCollection(ctx context.Context, collectionID string) (*models.Collection, error)
	GetMedia(ctx context.Context, mediaID, collectionID string) (*models.Media, error)
}

// ViewingKeyIssuer mints viewing keys for permitted requesters.
// Implemented by access.Issuer.
type ViewingKeyIssuer interface {
	IssueViewingKey(ctx context.Context, requesterID, wallet string, coll models.Collection) (string, error)
}

// ViewingKeyResponse carries the minted key and a ready-to-play URL
type ViewingKeyResponse struct {
	ViewingKey string `json:"viewing_key"`
	URL        string `json:"url"`
}

// ViewingKeyHandler issues viewing keys for gated media playback
type ViewingKeyHandler struct {
	store        MediaStore
	issuer       ViewingKeyIssuer
	mediaBaseURL string
}

// NewViewingKeyHandler creates a new viewing key handler
func NewViewingKeyHandler(store MediaStore, issuer ViewingKeyIssuer, mediaBaseURL string) *ViewingKeyHandler {
	return &ViewingKeyHandler{store: store, issuer: issuer, mediaBaseURL: mediaBaseURL}
}

// ServeHTTP handles GET /collections/{collection_id}/media/{media_id}/viewing_key.
// The requester's identity and wallet come from headers set by the
// upstream auth layer. Unknown collections, unknown media and refused
// access all answer 404 so callers cannot probe for gated content.
func (vh *ViewingKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, "get_viewing_key",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	vars := mux.Vars(r)
	collectionID := vars["collection_id"]
	mediaID := vars["media_id"]

	requesterID := r.Header.Get("X-Account-ID")
	wallet := r.Header.Get("X-Wallet-Address")

	span.SetAttributes(
		attribute.String("collection_id", collectionID),
		attribute.String("media_id", mediaID),
	)

	coll, err := vh.store.GetCollection(ctx, collectionID)
	if err != nil {
		span.RecordError(err)
		log.Printf("Collection lookup failed: %v", err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if coll == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	media, err := vh.store.GetMedia(ctx, mediaID, collectionID)
	if err != nil {
		span.RecordError(err)
		log.Printf("Media lookup failed: %v", err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if media == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	token, err := vh.issuer.IssueViewingKey(ctx, requesterID, wallet, *coll)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, models.ErrAccessDenied) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Printf("Viewing key issuance failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ViewingKeyResponse{
		ViewingKey: token,
		URL:        fmt.Sprintf("%s/%s?viewingKey=%s", vh.mediaBaseURL, media.VideoPath, token),
	})
}
