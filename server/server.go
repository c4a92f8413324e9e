package server

import (
	"crypto/tls"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/lcabral/docqa/conversation"
	"github.com/lcabral/docqa/handlers"
	"github.com/lcabral/docqa/services/observability_service"
	"github.com/lcabral/docqa/services/rag_service"
)

type Config struct {
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Dependencies struct {
	DB            *pgxpool.Pool
	Engine        *rag_service.Engine
	Embedder      rag_service.EmbeddingService
	Recorder      *observability_service.Recorder
	Registry      *observability_service.PromptRegistry
	Conversations *conversation.Store
	Model         string
	MaxUploadMB   int
	Logger        *slog.Logger
}

func SetupRoutes(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	maxUploadBytes := int64(deps.MaxUploadMB) << 20

	uploadHandler := handlers.NewUploadHandler(deps.Engine, deps.Logger, maxUploadBytes)
	r.Handle("/documents/upload", uploadHandler).Methods("POST")

	documentsHandler := handlers.NewDocumentsHandler(deps.Engine, deps.Logger)
	r.HandleFunc("/documents", documentsHandler.List).Methods("GET")
	r.HandleFunc("/documents/{id}", documentsHandler.Get).Methods("GET")
	r.HandleFunc("/documents/{id}", documentsHandler.Delete).Methods("DELETE")

	queryHandler := handlers.NewQueryHandler(deps.Engine, deps.Logger)
	r.Handle("/query", queryHandler).Methods("POST")

	conversationHandler := handlers.NewConversationHandler(deps.Conversations, deps.Logger)
	r.HandleFunc("/query/conversation/{conversation_id}", conversationHandler.History).Methods("GET")

	obsHandler := handlers.NewObservabilityHandler(deps.Recorder, deps.Registry, deps.Logger)
	r.HandleFunc("/observability/metrics", obsHandler.Metrics).Methods("GET")
	r.HandleFunc("/observability/logs", obsHandler.Logs).Methods("GET")
	r.HandleFunc("/observability/prompts", obsHandler.ListPrompts).Methods("GET")
	r.HandleFunc("/observability/prompts", obsHandler.CreatePrompt).Methods("POST")

	systemHandler := handlers.NewSystemHandler(deps.DB, deps.Engine, deps.Embedder, deps.Model, deps.Logger)
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/stats", systemHandler.Stats).Methods("GET")

	return r
}

// ServeProduction builds the server when we operate in a production environment.
func ServeProduction(n *negroni.Negroni, cfg Config) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment starts the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
