// Package debug provides tracing, raw dumps and pprof tooling for
// inspecting the profiler itself.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/ticktree/pkg/profiler"
)

// PprofServer serves Go runtime profiles next to the profiler's own state,
// so a slow region can be cross-checked against CPU and heap profiles.
type PprofServer struct {
	server *http.Server
	addr   string
	logger *logrus.Logger
}

// StartPprofServer listens on addr and serves /debug/pprof/. When sh is not
// nil it also serves /debug/ticktree/history (raw history dump) and
// /debug/ticktree/regions (tracked region names).
func StartPprofServer(addr string, sh *profiler.Shared, logger *logrus.Logger) (*PprofServer, error) {
	if addr == "" {
		addr = ":6060"
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(defaultTraceWriter())
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("pprof server failed: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	if sh != nil {
		mux.HandleFunc("/debug/ticktree/history", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			DumpHistory(w, sh.Snapshot())
		})
		mux.HandleFunc("/debug/ticktree/regions", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, strings.Join(sh.Names(), "\n"))
		})
	}

	s := &PprofServer{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr:   ln.Addr().String(),
		logger: logger,
	}

	go func() {
		logger.WithField("addr", s.addr).Info("pprof server starting")
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("pprof server stopped")
		}
	}()

	return s, nil
}

// Addr returns the address the server listens on.
func (s *PprofServer) Addr() string {
	return s.addr
}

// Stop gracefully shuts the server down.
func (s *PprofServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("pprof server shutdown failed")
	}
}
