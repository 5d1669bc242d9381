package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bamaao/bassinet-server/internal/access"
	"github.com/bamaao/bassinet-server/internal/config"
	"github.com/bamaao/bassinet-server/internal/handlers"
	"github.com/bamaao/bassinet-server/internal/storage"
	"github.com/bamaao/bassinet-server/internal/sui"
	"github.com/bamaao/bassinet-server/internal/tracing"
	"github.com/bamaao/bassinet-server/internal/upload"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	log.Println("Starting Bassinet media service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Service: %s, Port: %s", cfg.ServiceName, cfg.ServicePort)

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// Initialize MySQL client
	log.Println("Connecting to MySQL...")
	mysqlClient, err := storage.NewMySQLClient(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to initialize MySQL client: %v", err)
	}
	defer mysqlClient.Close()
	log.Println("MySQL client initialized")

	// Initialize Redis client
	log.Println("Connecting to Redis...")
	redisClient, err := storage.NewRedisClient(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized")

	// Initialize MinIO archive (optional)
	var archiver upload.Archiver
	if cfg.ArchiveEnabled {
		log.Println("Connecting to MinIO...")
		minioClient, err := storage.NewMinioClient(
			cfg.MinIOEndpoint,
			cfg.MinIOAccessKey,
			cfg.MinIOSecretKey,
			cfg.MinIOBucketName,
			cfg.MinIOUseSSL,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO client: %v", err)
		}
		archiver = minioClient
		log.Println("MinIO client initialized")
	}

	// Initialize staging and upload pipeline
	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		log.Fatalf("Failed to create staging directory: %v", err)
	}
	staging := upload.NewStaging(cfg.StagingDir)
	receiver := upload.NewReceiver(mysqlClient, staging)
	merger := upload.NewMerger(mysqlClient, staging, archiver)

	// Initialize access pipeline
	suiClient := sui.NewClient(cfg.SuiRPCURL)
	issuer := access.NewIssuer(redisClient, suiClient, mysqlClient)

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(receiver)
	mergeHandler := handlers.NewMergeHandler(merger)
	chunkListHandler := handlers.NewChunkListHandler(receiver)
	viewingKeyHandler := handlers.NewViewingKeyHandler(mysqlClient, issuer, cfg.MediaBaseURL)

	// Setup HTTP router
	router := mux.NewRouter()

	// Health check endpoint (no tracing needed)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Upload pipeline with tracing
	router.Handle("/media/chunk", otelhttp.NewHandler(uploadHandler, "POST /media/chunk")).Methods("POST")
	router.Handle("/media/merge", otelhttp.NewHandler(mergeHandler, "POST /media/merge")).Methods("POST")
	router.Handle("/media/chunks", otelhttp.NewHandler(chunkListHandler, "POST /media/chunks")).Methods("POST")

	// Viewing key issuance
	router.Handle("/collections/{collection_id}/media/{media_id}/viewing_key",
		otelhttp.NewHandler(viewingKeyHandler, "GET viewing_key")).Methods("GET")

	// Gated media delivery
	fileServer := http.StripPrefix("/assets/", http.FileServer(http.Dir(cfg.StagingDir)))
	router.PathPrefix("/assets/").Handler(handlers.ViewingKeyGate(redisClient, fileServer)).Methods("GET", "HEAD")

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %s", cfg.ServicePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
