package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
	"github.com/koltyakov/gosip/api"
	"golang.org/x/sync/errgroup"

	"spoadmin/application"
	"spoadmin/database"
	"spoadmin/domain/contracts"
	"spoadmin/infrastructure/config"
	"spoadmin/infrastructure/graph"
	"spoadmin/infrastructure/repositories"
	"spoadmin/infrastructure/spclient"
	"spoadmin/interfaces/web/handlers"
	"spoadmin/interfaces/web/presenters"
	"spoadmin/logging"
	"spoadmin/platform/events"
	"spoadmin/spauth"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file, using process environment")
	}
	cfg := config.LoadAppConfigFromEnv()

	logger := logging.NewLogger(cfg.Logging)
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

// RemoteClients holds the SharePoint and Graph clients built from one app registration.
type RemoteClients struct {
	Graph      *graph.Client
	SharePoint *spclient.Client
}

// ApplicationServices holds the in-memory store and the services around it.
type ApplicationServices struct {
	Store          *application.RecordStore
	Committer      *application.BatchCommitter
	WebPartService *application.WebPartService
	RequestService *application.RequestService
	EventBus       *events.RecordEventBus
}

// PresentationLayer groups handlers and the SSE fan-out.
type PresentationLayer struct {
	RecordHandlers  *handlers.RecordHandlers
	RequestHandlers *handlers.RequestHandlers
	SSEManager      *handlers.SSEManager
}

// Dependencies is the wired application.
type Dependencies struct {
	DB           *database.Database
	Logger       *logging.Logger
	JournalRepo  contracts.CommitJournalRepository
	Services     *ApplicationServices
	Presentation *PresentationLayer
}

// run serves until SIGINT or SIGTERM, then drains SSE streams and shuts the server down.
func run(cfg *config.AppConfig, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	logger.Info("Application starting",
		"log_level", cfg.Logging.Level,
		"db_path", cfg.Database.Path,
		"graph_base_url", cfg.Graph.BaseURL,
		"publish_after_write", cfg.Graph.PublishAfterWrite,
	)

	db, err := database.New(ctx, *cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	remote, err := buildRemoteClients(cfg, logger)
	if err != nil {
		return err
	}
	journal := repositories.NewSqliteCommitJournalRepository(db)
	deps := buildDependencies(ctx, db, logger, journal, buildApplicationServices(cfg, journal, remote))

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: setupRoutes(deps, cfg)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "sse_clients", deps.Presentation.SSEManager.ClientCount())
		// open event streams would otherwise hold Shutdown until the timeout
		deps.Presentation.SSEManager.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Server stopped")
	return err
}

// buildRemoteClients authenticates SharePoint REST and Microsoft Graph with the same certificate.
func buildRemoteClients(cfg *config.AppConfig, logger *logging.Logger) (*RemoteClients, error) {
	authCfg, err := spauth.FromEnv()
	if err != nil {
		return nil, err
	}
	spClient, err := spauth.NewClient(authCfg)
	if err != nil {
		return nil, fmt.Errorf("sharepoint client: %w", err)
	}
	cred, err := spauth.NewGraphCredential(authCfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Remote clients configured", "site_url", authCfg.SiteURL, "client_id", authCfg.ClientID)
	return &RemoteClients{
		Graph:      graph.NewClient(cred, nil, cfg.Graph),
		SharePoint: spclient.NewClient(api.NewSP(spClient)),
	}, nil
}

func buildApplicationServices(cfg *config.AppConfig, journal contracts.CommitJournalRepository, remote *RemoteClients) *ApplicationServices {
	bus := events.NewRecordEventBus()
	store := application.NewRecordStore(bus)
	committer := application.NewBatchCommitter(store, journal, bus, cfg.Commit)

	return &ApplicationServices{
		Store:     store,
		Committer: committer,
		// Graph is the site directory, record source and record writer at once
		WebPartService: application.NewWebPartService(remote.Graph, remote.Graph, remote.Graph, store, committer),
		RequestService: application.NewRequestService(remote.SharePoint, remote.Graph),
		EventBus:       bus,
	}
}

func buildDependencies(ctx context.Context, db *database.Database, logger *logging.Logger, journal contracts.CommitJournalRepository, services *ApplicationServices) *Dependencies {
	presenter := presenters.NewRecordPresenter()
	sse := handlers.NewSSEManager(ctx)

	events.NewNotificationEventHandlers(sse).RegisterHandlers(services.EventBus)

	return &Dependencies{
		DB:          db,
		Logger:      logger,
		JournalRepo: journal,
		Services:    services,
		Presentation: &PresentationLayer{
			RecordHandlers:  handlers.NewRecordHandlers(services.WebPartService, journal, presenter),
			RequestHandlers: handlers.NewRequestHandlers(services.RequestService, presenter),
			SSEManager:      sse,
		},
	}
}

func setupRoutes(deps *Dependencies, cfg *config.AppConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.HTTPLogPath != "" {
		if mw, err := httpLogMiddleware(cfg.HTTPLogPath); err != nil {
			deps.Logger.Error("HTTP request log disabled", "error", err, "path", cfg.HTTPLogPath)
		} else {
			r.Use(mw)
			deps.Logger.Info("HTTP request logging enabled", "path", cfg.HTTPLogPath)
		}
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(deps))
	r.Get("/events", deps.Presentation.SSEManager.HandleSSEConnection)

	h := deps.Presentation.RecordHandlers
	r.Get("/", h.Home)
	r.Get("/sites", h.Sites)
	r.Post("/pages/fetch", h.FetchPages)
	r.Post("/pages/select", h.SelectPage)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.Records)
		r.Get("/dirty", h.Dirty)
		r.Post("/field", h.SetField)
		r.Post("/path", h.SetPath)
		r.Post("/revert", h.Revert)
		r.Post("/replace", h.Replace)
		r.Post("/commit", h.Commit)
	})

	r.Get("/commits", h.Commits)
	r.Get("/commits/{runID}", h.CommitRun)

	r.Post("/requests", deps.Presentation.RequestHandlers.Execute)
	return r
}

// httpLogMiddleware appends one JSON line per request to path. The file stays open for the process lifetime.
func httpLogMiddleware(path string) (func(http.Handler) http.Handler, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return httplog.RequestLogger(httplog.NewLogger("spoadmin", httplog.Options{Writer: f, JSON: true})), nil
}

type healthResponse struct {
	Status     string         `json:"status"`
	Database   database.Stats `json:"database"`
	Records    int            `json:"records"`
	Dirty      int            `json:"dirty"`
	Committing bool           `json:"committing"`
	SSEClients int            `json:"sse_clients"`
}

func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.DB.Health(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		store := deps.Services.Store
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:     "ok",
			Database:   stats,
			Records:    len(store.Records()),
			Dirty:      store.DirtyCount(),
			Committing: store.Committing(),
			SSEClients: deps.Presentation.SSEManager.ClientCount(),
		})
	}
}
