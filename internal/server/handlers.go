package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/embedding"
	"github.com/hyperjump/lookalike/internal/models"
	"github.com/hyperjump/lookalike/internal/query"
	"github.com/hyperjump/lookalike/internal/upload"
	"github.com/hyperjump/lookalike/internal/vector"
	"go.uber.org/zap"
)

// imageField is the multipart field carrying the query image.
const imageField = "image"

// maxFieldBytes bounds non-image multipart fields such as top_k.
const maxFieldBytes = 1024

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	image, topKValue, err := s.readQuery(r)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	topK, err := parseIntParam("top_k", topKValue)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, models.KindInvalidInput, err.Error())
		return
	}
	s.logger.Debug("similarity request", zap.Int("bytes", len(image)), zap.Int("top_k", topK))
	resp, err := s.svc.HandleQuery(r.Context(), image, topK)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// readQuery extracts the image and the raw top_k value from a multipart
// form (field "image") or from a raw image body. top_k may also be given as
// a query parameter.
func (s *Server) readQuery(r *http.Request) ([]byte, string, error) {
	topK := r.URL.Query().Get("top_k")
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "multipart/form-data":
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, "", &query.InvalidInputError{Kind: query.KindCorrupt, Reason: "malformed multipart body", Err: err}
		}
		var image []byte
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, "", &query.InvalidInputError{Kind: query.KindCorrupt, Reason: "malformed multipart body", Err: err}
			}
			switch part.FormName() {
			case imageField:
				image, err = upload.ReadLimited(part, s.config.MaxUploadBytes)
			case "top_k":
				var v []byte
				v, err = io.ReadAll(io.LimitReader(part, maxFieldBytes))
				topK = strings.TrimSpace(string(v))
			}
			_ = part.Close()
			if err != nil {
				return nil, "", uploadError(err)
			}
		}
		if image == nil {
			return nil, "", &query.InvalidInputError{Kind: query.KindNoInput, Reason: `no "image" field in form`, Err: upload.ErrEmpty}
		}
		return image, topK, nil
	case strings.HasPrefix(mediaType, "image/"), mediaType == "application/octet-stream":
		image, err := upload.ReadLimited(r.Body, s.config.MaxUploadBytes)
		if err != nil {
			return nil, "", uploadError(err)
		}
		return image, topK, nil
	default:
		return nil, "", &query.InvalidInputError{
			Kind:   query.KindNoInput,
			Reason: "send the image as multipart field \"image\" or as an image/* body",
			Err:    upload.ErrEmpty,
		}
	}
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrEmpty):
		return &query.InvalidInputError{Kind: query.KindNoInput, Reason: "uploaded image is empty", Err: err}
	case errors.Is(err, upload.ErrTooLarge):
		return &query.InvalidInputError{Kind: query.KindTooLarge, Reason: "uploaded image is too large", Err: err}
	default:
		return &query.InvalidInputError{Kind: query.KindCorrupt, Reason: "could not read upload", Err: err}
	}
}

// parseIntParam parses an optional integer parameter; "" yields 0.
func parseIntParam(name, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.svc.Product(id)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, err := parseIntParam("limit", r.URL.Query().Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, models.KindInvalidInput, err.Error())
		return
	}
	s.logger.Debug("lookup request", zap.String("q", q), zap.Int("limit", limit))
	resp, err := s.svc.Lookup(r.Context(), q, limit)
	if err != nil {
		s.respondQueryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()
	st.CatalogWatching = s.watching
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().Reload(r.Context()); err != nil {
		s.respondQueryError(w, err)
		return
	}
	st := s.svc.Status()
	st.CatalogWatching = s.watching
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "lookalike backend running\n")
}

// respondQueryError maps service errors to status codes and error kinds.
func (s *Server) respondQueryError(w http.ResponseWriter, err error) {
	var (
		invalid     *query.InvalidInputError
		unavailable *embedding.UnavailableError
		mismatch    *vector.DimensionMismatchError
		loadErr     *catalog.LoadError
	)
	switch {
	case errors.As(err, &invalid):
		switch invalid.Kind {
		case query.KindNoInput:
			s.respondError(w, http.StatusBadRequest, models.KindNoInput, invalid.Reason)
		case query.KindTooLarge:
			s.respondError(w, http.StatusRequestEntityTooLarge, models.KindInputTooLarge, invalid.Reason)
		default:
			s.respondError(w, http.StatusBadRequest, models.KindInvalidInput, invalid.Reason)
		}
	case errors.As(err, &unavailable):
		s.respondError(w, http.StatusBadGateway, models.KindEmbeddingUnavailable, unavailable.Error())
	case errors.As(err, &mismatch):
		s.respondError(w, http.StatusInternalServerError, models.KindDimensionMismatch, mismatch.Error())
	case errors.As(err, &loadErr):
		s.logger.Error("catalog error", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.KindCatalog, loadErr.Error())
	case errors.Is(err, query.ErrNotFound):
		s.respondError(w, http.StatusNotFound, models.KindNotFound, err.Error())
	case errors.Is(err, query.ErrLookupDisabled):
		s.respondError(w, http.StatusNotImplemented, models.KindInternal, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, models.KindInternal, "request timed out")
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, models.KindInternal, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, kind models.ErrorKind, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message, Kind: kind})
}
