package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/nicolagi/kvs/kvs"
	"github.com/nicolagi/kvs/storage"
	log "github.com/sirupsen/logrus"
)

type Option func(*options)

type options struct {
	address string
	handler kvs.Handler
	store   *storage.Instrumented
}

func WithAddress(value string) Option {
	return func(o *options) {
		o.address = value
	}
}

// WithHandler sets the handler for /kvs/{key}.
func WithHandler(value kvs.Handler) Option {
	return func(o *options) {
		o.handler = value
	}
}

// WithInstrumentedStore makes the store's counters available on /metrics.
func WithInstrumentedStore(value *storage.Instrumented) Option {
	return func(o *options) {
		o.store = value
	}
}

type Server struct {
	opts     options
	ids      requestIDs
	mux      *http.ServeMux
	httpSrv  *http.Server
	ln       net.Listener
	requests *requestCounts
}

// New returns a server. Without WithHandler, it serves a canonical instance
// backed by a fresh in-memory store.
func New(opts ...Option) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		requests: newRequestCounts(),
	}
	s.opts.address = ":8090"
	for _, o := range opts {
		o(&s.opts)
	}
	if s.opts.handler == nil {
		if s.opts.store == nil {
			s.opts.store = storage.NewInstrumented(storage.NewInMemoryStore())
		}
		s.opts.handler = kvs.NewLocal(s.opts.store, kvs.DefaultMaxKeyLength)
	}
	s.mux.HandleFunc("PUT /kvs/{key}", s.handlePut)
	s.mux.HandleFunc("GET /kvs/{key}", s.handleGet)
	s.mux.HandleFunc("DELETE /kvs/{key}", s.handleDelete)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
	s.httpSrv = &http.Server{Handler: s.mux}
	return s
}

// ServeHTTP makes the server usable with net/http/httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Listen() (addr string, err error) {
	s.ln, err = net.Listen("tcp", s.opts.address)
	if err != nil {
		return
	}
	addr = s.ln.Addr().String()
	return
}

// Serve serves requests on the listener opened by Listen. It returns nil
// once Shutdown is called.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("server: Serve called before Listen")
	}
	err := s.httpSrv.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests,
// or for ctx to be done, whichever comes first.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		// A body we can't read doesn't specify a value; let the handler say so.
		log.WithFields(log.Fields{
			"key": key,
			"err": err,
		}).Warn("Could not read request body")
		body = nil
	}
	s.reply(w, r, key, s.opts.handler.Put(r.Context(), key, body))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	s.reply(w, r, key, s.opts.handler.Get(r.Context(), key))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	s.reply(w, r, key, s.opts.handler.Delete(r.Context(), key))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, key string, reply kvs.Reply) {
	logger := log.WithFields(log.Fields{
		"id":     s.ids.Next(),
		"op":     r.Method,
		"key":    key,
		"status": reply.Status,
	})
	s.requests.add(r.Method, reply.Status)
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	} else {
		// Relay the absence of a content type rather than a sniffed one.
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(reply.Status)
	if _, err := w.Write(reply.Body); err != nil {
		logger.WithField("err", err).Error("Failed writing response")
		return
	}
	if reply.Status >= http.StatusInternalServerError {
		logger.Warn("Failed")
	} else {
		logger.Debug("Done")
	}
}
