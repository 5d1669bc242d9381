package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bamaao/bassinet-server/internal/handlers"
	"github.com/bamaao/bassinet-server/internal/models"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMediaStore struct {
	collections map[string]*models.Collection
	media       map[string]*models.Media
}

func (f *fakeMediaStore) GetCollection(ctx context.Context, collectionID string) (*models.Collection, error) {
	return f.collections[collectionID], nil
}

func (f *fakeMediaStore) GetMedia(ctx context.Context, mediaID, collectionID string) (*models.Media, error) {
	m := f.media[mediaID]
	if m == nil || m.CollectionID != collectionID {
		return nil, nil
	}
	return m, nil
}

type fakeIssuer struct {
	token string
	err   error
}

func (f *fakeIssuer) IssueViewingKey(ctx context.Context, requesterID, wallet string, coll models.Collection) (string, error) {
	return f.token, f.err
}

func viewingKeyRouter(store handlers.MediaStore, issuer handlers.ViewingKeyIssuer) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/collections/{collection_id}/media/{media_id}/viewing_key",
		handlers.NewViewingKeyHandler(store, issuer, "http://localhost:8080/assets")).Methods("GET")
	return router
}

func knownStore() *fakeMediaStore {
	return &fakeMediaStore{
		collections: map[string]*models.Collection{
			"coll-1": {ID: "coll-1", AuthorID: "author-1", IsPublic: true},
		},
		media: map[string]*models.Media{
			"media-1": {ID: "media-1", CollectionID: "coll-1", VideoPath: "abc/abc.mp4"},
		},
	}
}

func TestViewingKeyHandler_IssuesKeyWithPlaybackURL(t *testing.T) {
	router := viewingKeyRouter(knownStore(), &fakeIssuer{token: "tok-123"})

	req := httptest.NewRequest(http.MethodGet, "/collections/coll-1/media/media-1/viewing_key", nil)
	req.Header.Set("X-Account-ID", "viewer")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ViewingKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-123", resp.ViewingKey)
	assert.Equal(t, "http://localhost:8080/assets/abc/abc.mp4?viewingKey=tok-123", resp.URL)
}

func TestViewingKeyHandler_DenialAndNotFoundAreIndistinguishable(t *testing.T) {
	tests := []struct {
		name   string
		target string
		issuer *fakeIssuer
	}{
		{"unknown collection", "/collections/ghost/media/media-1/viewing_key", &fakeIssuer{token: "tok"}},
		{"unknown media", "/collections/coll-1/media/ghost/viewing_key", &fakeIssuer{token: "tok"}},
		{"access denied", "/collections/coll-1/media/media-1/viewing_key", &fakeIssuer{err: models.ErrAccessDenied}},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := viewingKeyRouter(knownStore(), tt.issuer)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusNotFound, rec.Code)
			bodies = append(bodies, rec.Body.String())
		})
	}

	for _, body := range bodies {
		assert.Equal(t, bodies[0], body, "denial responses must not leak existence")
	}
}

func TestViewingKeyHandler_InternalFaultIs500(t *testing.T) {
	router := viewingKeyRouter(knownStore(), &fakeIssuer{err: assert.AnError})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/collections/coll-1/media/media-1/viewing_key", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
