package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/usecase"
)

const maxJSONBodySize = 1 << 20

// Deps are the collaborators the HTTP surface dispatches to. Metrics and
// MetricsMiddleware are optional.
type Deps struct {
	Actors            *usecase.ActorService
	Movies            *usecase.MovieService
	Genres            *usecase.GenreService
	Health            *usecase.HealthService
	Metrics           http.Handler
	MetricsMiddleware func(http.Handler) http.Handler
	// TelemetryKey guards /metrics as a bearer token.
	TelemetryKey string
	// AuthSigningKey, when set, makes /api require an HS256 bearer JWT.
	AuthSigningKey string
	Logger         *slog.Logger
}

type Handler struct {
	actors       *usecase.ActorService
	movies       *usecase.MovieService
	genres       *usecase.GenreService
	health       *usecase.HealthService
	metrics      http.Handler
	metricsMW    func(http.Handler) http.Handler
	telemetryKey string
	signingKey   []byte
	log          *slog.Logger
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Handler{
		actors:       deps.Actors,
		movies:       deps.Movies,
		genres:       deps.Genres,
		health:       deps.Health,
		metrics:      deps.Metrics,
		metricsMW:    deps.MetricsMiddleware,
		telemetryKey: deps.TelemetryKey,
		log:          logger,
	}
	if deps.AuthSigningKey != "" {
		h.signingKey = []byte(deps.AuthSigningKey)
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(recoverer(h.log))
	if h.metricsMW != nil {
		r.Use(h.metricsMW)
	}
	r.Use(cors)

	r.Get("/healthz", h.healthz)
	if h.metrics != nil {
		r.With(requireBearer(h.telemetryKey)).Get("/metrics", h.metrics.ServeHTTP)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/openapi.json", h.openapi)

		api.Group(func(pr chi.Router) {
			pr.Use(h.authorize)
			pr.Get("/actors", h.listActors)
			pr.Get("/actors/{id}", h.getActor)
			pr.Post("/actors", h.createActor)

			pr.Get("/movies", h.listMovies)
			pr.Get("/movies/{id}", h.getMovie)
			pr.Post("/movies", h.createMovie)
			pr.Put("/movies/{id}", h.replaceMovie)
			pr.Delete("/movies/{id}", h.deleteMovie)

			pr.Get("/genres", h.listGenres)
			pr.Post("/genres", h.createGenre)
		})
	})

	return r
}

func (h *Handler) listActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.actors.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleDomainError(w, r, "actor", err)
		return
	}
	writeJSON(w, http.StatusOK, actors)
}

func (h *Handler) getActor(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleDomainError(w, r, "actor", err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (h *Handler) createActor(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	actor, err := h.actors.Create(r.Context(), body)
	if err != nil {
		h.handleDomainError(w, r, "actor", err)
		return
	}
	writeJSON(w, http.StatusCreated, actor)
}

func (h *Handler) listMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movies.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleDomainError(w, r, "movie", err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *Handler) getMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := h.movies.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleDomainError(w, r, "movie", err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (h *Handler) createMovie(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	movie, err := h.movies.Create(r.Context(), body)
	if err != nil {
		h.handleDomainError(w, r, "movie", err)
		return
	}
	writeJSON(w, http.StatusCreated, movie)
}

func (h *Handler) replaceMovie(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	movie, err := h.movies.Replace(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		h.handleDomainError(w, r, "movie", err)
		return
	}
	writeJSON(w, http.StatusCreated, movie)
}

func (h *Handler) deleteMovie(w http.ResponseWriter, r *http.Request) {
	if err := h.movies.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleDomainError(w, r, "movie", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genres.List(r.Context())
	if err != nil {
		h.handleDomainError(w, r, "genre", err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *Handler) createGenre(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	genre, err := h.genres.Create(r.Context(), body)
	if err != nil {
		h.handleDomainError(w, r, "genre", err)
		return
	}
	writeJSON(w, http.StatusCreated, genre)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Check(r.Context()); err != nil {
		h.log.Error("healthcheck failed", "req_id", chimw.GetReqID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "Healthcheck failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully reached healthcheck endpoint."})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

// readBody reads the request body as a single JSON value.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	decoder := json.NewDecoder(r.Body)
	var body json.RawMessage
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode json response", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Debug("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message any) {
	writeJSON(w, status, map[string]any{"message": message, "status": status})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, r *http.Request, resource string, err error) {
	var (
		validationErr *domain.ValidationError
		storeErr      *domain.StoreError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Messages)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &storeErr):
		h.log.Error("store request failed", "req_id", chimw.GetReqID(r.Context()), "resource", resource, "err", err)
		writeError(w, http.StatusInternalServerError, storeErr.Error())
	default:
		h.log.Error("request failed", "req_id", chimw.GetReqID(r.Context()), "resource", resource, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "helium",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/api/actors": map[string]any{
				"get":  map[string]any{"summary": "List actors, optionally filtered by name (q)"},
				"post": map[string]any{"summary": "Create actor"},
			},
			"/api/actors/{id}": map[string]any{
				"get": map[string]any{"summary": "Get actor by actorId"},
			},
			"/api/movies": map[string]any{
				"get":  map[string]any{"summary": "List movies, optionally filtered by title (q)"},
				"post": map[string]any{"summary": "Create movie"},
			},
			"/api/movies/{id}": map[string]any{
				"get":    map[string]any{"summary": "Get movie by movieId"},
				"put":    map[string]any{"summary": "Replace movie"},
				"delete": map[string]any{"summary": "Delete movie"},
			},
			"/api/genres": map[string]any{
				"get":  map[string]any{"summary": "List genres"},
				"post": map[string]any{"summary": "Create genre"},
			},
			"/healthz": map[string]any{
				"get": map[string]any{"summary": "Store connectivity probe"},
			},
		},
	}
}
