package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/google/uuid"
	"github.com/goto/salt/log"

	"github.com/datatrail-io/sextant/core/catalog"
	"github.com/datatrail-io/sextant/core/lineage"
	"github.com/datatrail-io/sextant/internal/server/handlers"
	"github.com/datatrail-io/sextant/internal/store/postgres"
)

const requestIDHeader = "X-Request-Id"

type Config struct {
	Host string `mapstructure:"host" default:"0.0.0.0"`
	Port int    `mapstructure:"port" default:"8080"`
}

func (cfg Config) addr() string { return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port) }

// Serve runs the HTTP API until ctx is canceled, then shuts down
// gracefully and closes the db client.
func Serve(
	ctx context.Context,
	config Config,
	logger *log.Logrus,
	pgClient *postgres.Client,
	catalogRepo catalog.Repository,
	lineageService *lineage.Service,
) error {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware)

	RegisterRoutes(router, &Handlers{
		Lineage: handlers.NewLineageHandler(logger, lineageService),
		Source:  handlers.NewSourceHandler(logger, catalogRepo, lineageService),
	})

	defer func() {
		if pgClient != nil {
			logger.Warn("closing db...")
			if err := pgClient.Close(); err != nil {
				logger.Error("error when closing db", "err", err)
			}
			logger.Warn("db closed...")
		}
	}()

	srv := &http.Server{
		Addr:         config.addr(),
		Handler:      gorillahandlers.CompressHandler(router),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	logger.Info("Starting server", "http_addr", config.addr())

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server shutdown error", "err", err)
	}

	logger.Info("server stopped")
	return nil
}

type Handlers struct {
	Lineage *handlers.LineageHandler
	Source  *handlers.SourceHandler
}

func RegisterRoutes(router *mux.Router, h *Handlers) {
	router.Path("/ping").
		Methods(http.MethodGet).
		HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, "pong")
		})

	setupV1Beta1Router(router.PathPrefix("/v1beta1").Subrouter(), h)

	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
}

func setupV1Beta1Router(router *mux.Router, h *Handlers) {
	router.Path("/lineage/{id}").
		Methods(http.MethodGet).
		HandlerFunc(h.Lineage.GetGraph)

	router.Path("/lineage/{id}/summary").
		Methods(http.MethodGet).
		HandlerFunc(h.Lineage.GetSummary)

	router.Path("/lineage/manual").
		Methods(http.MethodPost).
		HandlerFunc(h.Lineage.AddManualDependency)

	router.Path("/lineage/manual/{object_id}/{target_id}").
		Methods(http.MethodDelete).
		HandlerFunc(h.Lineage.RemoveManualDependency)

	router.Path("/sources").
		Methods(http.MethodPut).
		HandlerFunc(h.Source.CreateSource)

	router.Path("/sources/{name}/objects").
		Methods(http.MethodPut).
		HandlerFunc(h.Source.UpsertObjects)

	router.Path("/sources/{name}/dependencies").
		Methods(http.MethodPut).
		HandlerFunc(h.Source.IngestDependencies)

	router.Path("/sources/{name}/dependencies").
		Methods(http.MethodDelete).
		HandlerFunc(h.Source.DeleteDependencies)

	router.Path("/objects/{id}").
		Methods(http.MethodDelete).
		HandlerFunc(h.Source.DeleteObject)
}

// requestIDMiddleware tags each request with an id so log lines from one
// request can be correlated. An id supplied by the caller is kept.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}
