package handlers

import (
	"context"
	"log"
	"net/http"
)

// KeyChecker reports whether a viewing key is currently valid.
// Implemented by storage.RedisClient.
type KeyChecker interface {
	ViewingKeyExists(ctx context.Context, token string) (bool, error)
}

// ViewingKeyGate admits a media request only if it carries a currently
// valid viewing key in the viewingKey query parameter. The check is
// stateless: the same key admits repeated requests, range requests
// included, until its TTL lapses. Cache faults reject.
func ViewingKeyGate(cache KeyChecker, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("viewingKey")
		if token == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		valid, err := cache.ViewingKeyExists(r.Context(), token)
		if err != nil {
			log.Printf("Viewing key lookup failed: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !valid {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
