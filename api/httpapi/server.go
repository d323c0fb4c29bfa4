// Package httpapi exposes fingerprinting, the schema registry and the
// appinfo editor over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"xdao.co/xsdhash"
	"xdao.co/xsdhash/appinfo"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/model"
	"xdao.co/xsdhash/registry"
)

// DefaultMaxBodyBytes caps request bodies when Server.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 16 << 20

// Server holds the handler dependencies. Registry may be nil, in which case
// the /v1/schemas routes answer 503.
type Server struct {
	Registry     *registry.Registry
	Algorithm    digest.Algorithm
	Logger       *slog.Logger
	Version      string
	MaxBodyBytes int64
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/fingerprint", s.fingerprint)
		r.Post("/canonical", s.canonical)
		r.Post("/equivalent", s.equivalent)
		r.Post("/schemas", s.register)
		r.Get("/schemas/{fingerprint}", s.lookup)
		r.Head("/schemas/{fingerprint}", s.exists)
		r.Post("/metadata", s.addMetadata)
		r.Delete("/metadata", s.deleteMetadata)
	})
	return r
}

func (s *Server) log() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		s.log().DebugContext(req.Context(), "http request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(req.Context())))
	})
}

func (s *Server) algorithm(req *http.Request) (digest.Algorithm, error) {
	if q := req.URL.Query().Get("alg"); q != "" {
		return digest.ParseAlgorithm(q)
	}
	if s.Algorithm == "" {
		return digest.Default, nil
	}
	return s.Algorithm, nil
}

func (s *Server) readBody(w http.ResponseWriter, req *http.Request) ([]byte, error) {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, req.Body, limit))
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return nil, fmt.Errorf("request body exceeds %d bytes: %w", limit, err)
	}
	if err != nil {
		return nil, model.NewError(model.ErrInvalidRequest, fmt.Sprintf("read body: %v", err))
	}
	return b, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	b, err := s.readBody(w, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return model.NewError(model.ErrInvalidRequest, fmt.Sprintf("decode body: %v", err))
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, model.Health{Status: "ok", Version: s.Version, Algorithm: string(s.defaultAlg())})
}

func (s *Server) defaultAlg() digest.Algorithm {
	if s.Algorithm == "" {
		return digest.Default
	}
	return s.Algorithm
}

func (s *Server) fingerprint(w http.ResponseWriter, req *http.Request) {
	alg, err := s.algorithm(req)
	if err != nil {
		s.fail(w, req, model.NewError(model.ErrInvalidRequest, err.Error()))
		return
	}
	body, err := s.readBody(w, req)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	opts := xsdhash.Options{Algorithm: alg}
	fp, err := xsdhash.FingerprintBytesWith(body, opts)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, model.FromResult(xsdhash.Result{Name: req.URL.Query().Get("name"), Fingerprint: fp}, opts))
}

func (s *Server) canonical(w http.ResponseWriter, req *http.Request) {
	body, err := s.readBody(w, req)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	canon, err := xsdhash.CanonicalBytes(body)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(canon)
}

type equivalenceRequest struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

func (s *Server) equivalent(w http.ResponseWriter, req *http.Request) {
	alg, err := s.algorithm(req)
	if err != nil {
		s.fail(w, req, model.NewError(model.ErrInvalidRequest, err.Error()))
		return
	}
	var in equivalenceRequest
	if err := s.decodeJSON(w, req, &in); err != nil {
		s.fail(w, req, err)
		return
	}
	opts := xsdhash.Options{Algorithm: alg}
	left, err := xsdhash.FingerprintWith(in.Left, opts)
	if err != nil {
		s.fail(w, req, fmt.Errorf("left document: %w", err))
		return
	}
	right, err := xsdhash.FingerprintWith(in.Right, opts)
	if err != nil {
		s.fail(w, req, fmt.Errorf("right document: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, model.Equivalence{
		Equivalent: left == right,
		Algorithm:  string(alg),
		Left:       left,
		Right:      right,
	})
}

func (s *Server) register(w http.ResponseWriter, req *http.Request) {
	if s.Registry == nil {
		s.unavailable(w)
		return
	}
	body, err := s.readBody(w, req)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	entry, err := s.Registry.Register(req.Context(), body)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	status := http.StatusCreated
	if entry.Duplicate {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/v1/schemas/"+entry.Fingerprint)
	writeJSON(w, status, model.FromEntry(entry))
}

func (s *Server) lookup(w http.ResponseWriter, req *http.Request) {
	if s.Registry == nil {
		s.unavailable(w)
		return
	}
	fp := chi.URLParam(req, "fingerprint")
	b, err := s.Registry.Lookup(req.Context(), fp)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) exists(w http.ResponseWriter, req *http.Request) {
	if s.Registry == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	ok, err := s.Registry.Has(req.Context(), chi.URLParam(req, "fingerprint"))
	switch {
	case err != nil:
		w.WriteHeader(statusFor(model.Code(err)))
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) addMetadata(w http.ResponseWriter, req *http.Request) {
	s.editMetadata(w, req, func(in model.MetadataRequest) (string, error) {
		return appinfo.AddMetadata(in.Document, in.Locator, in.Key, in.Value)
	})
}

func (s *Server) deleteMetadata(w http.ResponseWriter, req *http.Request) {
	s.editMetadata(w, req, func(in model.MetadataRequest) (string, error) {
		return appinfo.DeleteMetadata(in.Document, in.Locator, in.Key)
	})
}

func (s *Server) editMetadata(w http.ResponseWriter, req *http.Request, apply func(model.MetadataRequest) (string, error)) {
	alg, err := s.algorithm(req)
	if err != nil {
		s.fail(w, req, model.NewError(model.ErrInvalidRequest, err.Error()))
		return
	}
	var in model.MetadataRequest
	if err := s.decodeJSON(w, req, &in); err != nil {
		s.fail(w, req, err)
		return
	}
	out, err := apply(in)
	if err != nil {
		s.fail(w, req, err)
		return
	}
	fp, err := xsdhash.FingerprintWith(out, xsdhash.Options{Algorithm: alg})
	if err != nil {
		s.fail(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, model.MetadataResponse{Document: out, Fingerprint: fp})
}

func (s *Server) unavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, model.NewError(model.ErrInternal, "schema store not configured"))
}

func (s *Server) fail(w http.ResponseWriter, req *http.Request, err error) {
	coded := model.FromError(err)
	status := statusFor(coded.Code)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		coded.Code = model.ErrInvalidRequest
		status = http.StatusRequestEntityTooLarge
	}
	if status >= 500 {
		s.log().ErrorContext(req.Context(), "request failed",
			slog.String("path", req.URL.Path),
			slog.Any("error", err))
	}
	writeJSON(w, status, coded)
}

func statusFor(code model.ErrorCode) int {
	switch code {
	case model.ErrInvalidRequest, model.ErrParse, model.ErrInvalidKey,
		model.ErrInvalidFingerprint, model.ErrInvalidCID:
		return http.StatusBadRequest
	case model.ErrLocator:
		return http.StatusUnprocessableEntity
	case model.ErrAmbiguousMetadata:
		return http.StatusConflict
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrCIDMismatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
