package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// HealthServer exposes the retained sync reports over HTTP for probes and
// dashboards. GET /health answers 200 while the newest report of every kind
// is non-critical, 503 otherwise; GET /health/reports returns the full
// retained window as JSON.
type HealthServer struct {
	server  *http.Server
	history *History
	addr    string
}

func NewHealthServer(ctx context.Context, addr string, history *History, kinds []string) (*HealthServer, error) {
	hs := &HealthServer{history: history}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		for _, kind := range kinds {
			if rep, ok := history.Latest(kind); ok && rep.Critical {
				http.Error(w, "sync pass "+kind+" critical", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/reports", func(w http.ResponseWriter, r *http.Request) {
		out := map[string][]Report{}
		for _, kind := range kinds {
			out[kind] = history.Recent(kind)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})

	hs.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	hs.addr = l.Addr().String()

	go func() {
		if err := hs.server.Serve(l); err != nil && err != http.ErrServerClosed {
			ctxzap.Extract(ctx).Error("health server exited", zap.Error(err))
		}
	}()

	return hs, nil
}

// Addr returns the bound listen address, useful when listening on port 0.
func (h *HealthServer) Addr() string {
	return h.addr
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}
