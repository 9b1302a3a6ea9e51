package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bilal/wifiwatch/internal/model"
)

const noVerdict = -1

type Server struct {
	srv         *http.Server
	router      *mux.Router
	running     int32
	lastVerdict int32
	samples     int64
	lastSample  int64 // unix nanos
}

func New(listen string) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		lastVerdict: noVerdict,
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
	return s
}

func (s *Server) SetRunning(ok bool) {
	if ok {
		atomic.StoreInt32(&s.running, 1)
	} else {
		atomic.StoreInt32(&s.running, 0)
	}
}

// RecordSample notes the verdict and capture time of the latest sample.
func (s *Server) RecordSample(sample model.Sample) {
	atomic.StoreInt32(&s.lastVerdict, int32(sample.Verdict))
	atomic.StoreInt64(&s.lastSample, sample.Timestamp.UnixNano())
	atomic.AddInt64(&s.samples, 1)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve blocks until Shutdown is called.
func (s *Server) Serve() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type status struct {
	Running     bool       `json:"running"`
	Samples     int64      `json:"samples"`
	LastVerdict string     `json:"last_verdict,omitempty"`
	LastSample  *time.Time `json:"last_sample,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := status{
		Running: atomic.LoadInt32(&s.running) == 1,
		Samples: atomic.LoadInt64(&s.samples),
	}
	if v := atomic.LoadInt32(&s.lastVerdict); v != noVerdict {
		resp.LastVerdict = model.Verdict(v).String()
	}
	if ns := atomic.LoadInt64(&s.lastSample); ns != 0 {
		ts := time.Unix(0, ns).UTC()
		resp.LastSample = &ts
	}

	code := http.StatusOK
	if !resp.Running {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
