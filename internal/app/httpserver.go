package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/odaliasengell/neurolog-app-sub000/internal/config"
	"github.com/odaliasengell/neurolog-app-sub000/internal/metrics"
	"github.com/odaliasengell/neurolog-app-sub000/internal/notify"
	"github.com/odaliasengell/neurolog-app-sub000/internal/service"
)

type HTTPServer struct {
	srv *http.Server
}

// StartHTTP serves /healthz, /metrics and the JSON API, and shuts down when
// ctx is cancelled.
func StartHTTP(ctx context.Context, cfg *config.Config, database *sql.DB, notifier *notify.Notifier, log *zap.SugaredLogger) *HTTPServer {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())

	api := &API{
		database: database,
		cfg:      cfg,
		children: service.NewChildService(database, notifier, log),
		logs:     service.NewLogService(database, log),
		limiter:  NewUserLimiter(),
		log:      log,
	}
	api.Register(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		_ = srv.ListenAndServe() // Shutdown closes this cleanly
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}
