package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/heliumapi/helium/internal/adapters/docstore"
	"github.com/heliumapi/helium/internal/adapters/docstore/gormdb"
	"github.com/heliumapi/helium/internal/adapters/telemetry"
	"github.com/heliumapi/helium/internal/core/domain"
	"github.com/heliumapi/helium/internal/core/ports"
	"github.com/heliumapi/helium/internal/core/usecase"
	"github.com/heliumapi/helium/migrations"
)

const testTelemetryKey = "telemetry-key"

type stubStore struct {
	queryFn func(ctx context.Context, database, collection string, q domain.Query) ([]domain.Document, error)
}

func (s *stubStore) QueryDocuments(ctx context.Context, database, collection string, q domain.Query) ([]domain.Document, error) {
	if s.queryFn != nil {
		return s.queryFn(ctx, database, collection, q)
	}
	return nil, nil
}

func (s *stubStore) GetDocument(context.Context, string, string, string, string) (domain.Document, error) {
	return domain.Document{}, domain.ErrNotFound
}

func (s *stubStore) UpsertDocument(_ context.Context, _, _ string, doc domain.Document) (domain.Document, error) {
	return doc, nil
}

func (s *stubStore) DeleteDocument(context.Context, string, string, string, string) error {
	return nil
}

func (s *stubStore) QueryCollections(context.Context, string) ([]string, error) {
	return []string{"movies"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(t *testing.T, store ports.DocumentStore, signingKey string) http.Handler {
	t.Helper()
	validator, err := usecase.NewPayloadValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	telem := telemetry.New()
	coll := usecase.Collection{Store: store, Database: "imdb", Name: "movies", PartitionKey: "0"}
	return NewHandler(Deps{
		Actors:            usecase.NewActorService(coll, validator, telem),
		Movies:            usecase.NewMovieService(coll, validator, telem),
		Genres:            usecase.NewGenreService(coll, validator, telem),
		Health:            usecase.NewHealthService(store, "imdb", telem),
		Metrics:           telem.Handler(),
		MetricsMiddleware: telem.Middleware,
		TelemetryKey:      testTelemetryKey,
		AuthSigningKey:    signingKey,
		Logger:            discardLogger(),
	}).Router()
}

// newStoreRouter serves the API over a migrated sqlite document store.
func newStoreRouter(t *testing.T) (http.Handler, *gormdb.DB) {
	t.Helper()
	db, err := gormdb.Open(filepath.Join(t.TempDir(), "helium.sqlite"), "")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Up(context.Background(), sqlDB, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	client := docstore.NewClient(db, telemetry.New(), discardLogger())
	if err := client.EnsureCollection(context.Background(), "imdb", "movies"); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}
	return newRouter(t, client, ""), db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

const matrixJSON = `{"id":"m1","movieId":"m1","title":"X","textSearch":"x","type":"Movie","year":1994}`

func TestMovieCreateThenGet(t *testing.T) {
	h, _ := newStoreRouter(t)

	rec := do(t, h, http.MethodPost, "/api/movies", matrixJSON)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/movies/m1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var movie domain.Movie
	decodeBody(t, rec, &movie)
	if movie.Title != "X" || movie.Year == nil || *movie.Year != 1994 {
		t.Fatalf("unexpected movie: %+v", movie)
	}
}

func TestMoviePutReplacesInPlace(t *testing.T) {
	h, _ := newStoreRouter(t)
	do(t, h, http.MethodPost, "/api/movies", matrixJSON)

	rec := do(t, h, http.MethodPut, "/api/movies/m1", `{"id":"m1","movieId":"m1","title":"Y","textSearch":"y","type":"Movie"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/movies/m1", "")
	var movie domain.Movie
	decodeBody(t, rec, &movie)
	if movie.ID != "m1" || movie.Title != "Y" || movie.TextSearch != "y" {
		t.Fatalf("unexpected movie after replace: %+v", movie)
	}

	rec = do(t, h, http.MethodGet, "/api/movies", "")
	var movies []domain.Movie
	decodeBody(t, rec, &movies)
	if len(movies) != 1 {
		t.Fatalf("expected one movie after replace, got %d", len(movies))
	}
}

func TestMoviePutRejectsMismatchedID(t *testing.T) {
	h, _ := newStoreRouter(t)

	rec := do(t, h, http.MethodPut, "/api/movies/m2", matrixJSON)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMoviePutMissingMovieReturns404(t *testing.T) {
	h, _ := newStoreRouter(t)

	rec := do(t, h, http.MethodPut, "/api/movies/m1", matrixJSON)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/api/movies", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("put must not create a movie, got %s", got)
	}
}

func TestMoviePutCannotForkDocumentID(t *testing.T) {
	h, _ := newStoreRouter(t)
	do(t, h, http.MethodPost, "/api/movies", matrixJSON)

	rec := do(t, h, http.MethodPut, "/api/movies/m1", `{"id":"z9","movieId":"m1","title":"New","textSearch":"new","type":"Movie"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/movies", "")
	var movies []domain.Movie
	decodeBody(t, rec, &movies)
	if len(movies) != 1 || movies[0].ID != "m1" || movies[0].Title != "X" {
		t.Fatalf("unexpected movies after rejected put: %+v", movies)
	}

	if rec := do(t, h, http.MethodDelete, "/api/movies/m1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/movies/m1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMovieDeleteThenGet(t *testing.T) {
	h, _ := newStoreRouter(t)
	do(t, h, http.MethodPost, "/api/movies", matrixJSON)

	if rec := do(t, h, http.MethodDelete, "/api/movies/m1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/movies/m1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/movies/m1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestListFilterWithNoMatchesReturnsEmptyList(t *testing.T) {
	h, _ := newStoreRouter(t)
	do(t, h, http.MethodPost, "/api/movies", matrixJSON)

	rec := do(t, h, http.MethodGet, "/api/movies?q=nothing", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty list, got %s", got)
	}
}

func TestActorListFilterIsCaseInsensitive(t *testing.T) {
	h, _ := newStoreRouter(t)
	for _, body := range []string{
		`{"id":"nm1","actorId":"nm1","name":"Keanu Reeves","textSearch":"keanu reeves","type":"Actor"}`,
		`{"id":"nm2","actorId":"nm2","name":"Carrie-Anne Moss","textSearch":"carrie-anne moss","type":"Actor"}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/actors", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	// movies share the collection and must not leak into actor results
	do(t, h, http.MethodPost, "/api/movies", matrixJSON)

	rec := do(t, h, http.MethodGet, "/api/actors?q=REEVES", "")
	var actors []domain.Actor
	decodeBody(t, rec, &actors)
	if len(actors) != 1 || actors[0].ActorID != "nm1" {
		t.Fatalf("unexpected actors: %+v", actors)
	}

	rec = do(t, h, http.MethodGet, "/api/actors", "")
	decodeBody(t, rec, &actors)
	if len(actors) != 2 {
		t.Fatalf("expected 2 actors, got %+v", actors)
	}

	if rec := do(t, h, http.MethodGet, "/api/actors/nm2", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/actors/nm9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestActorCreateMissingFields(t *testing.T) {
	h, _ := newStoreRouter(t)

	rec := do(t, h, http.MethodPost, "/api/actors", `{"type":"Actor"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var payload struct {
		Message []string `json:"message"`
		Status  int      `json:"status"`
	}
	decodeBody(t, rec, &payload)
	if payload.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", payload.Status)
	}
	joined := strings.Join(payload.Message, "\n")
	for _, field := range []string{"id", "actorId", "name", "textSearch"} {
		if !strings.Contains(joined, `"`+field+`"`) {
			t.Errorf("message list %q does not name %s", payload.Message, field)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/actors", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("invalid actor was persisted: %s", got)
	}
}

func TestGenreCreateAndList(t *testing.T) {
	h, _ := newStoreRouter(t)

	for _, body := range []string{
		`{"id":"action","type":"Genre","genre":"Action"}`,
		`{"id":"sci-fi","type":"Genre","genre":"Sci-Fi"}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/genres", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	rec := do(t, h, http.MethodGet, "/api/genres", "")
	var genres []domain.Genre
	decodeBody(t, rec, &genres)
	if len(genres) != 2 || genres[0].Genre != "Action" || genres[1].ID != "sci-fi" {
		t.Fatalf("unexpected genres: %+v", genres)
	}
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	h, _ := newStoreRouter(t)

	for _, body := range []string{`{`, `{"id":"m1"} {}`} {
		if rec := do(t, h, http.MethodPost, "/api/movies", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHealthzOK(t *testing.T) {
	h, _ := newStoreRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthzReportsUnreachableStore(t *testing.T) {
	h, db := newStoreRouter(t)
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var payload map[string]any
	decodeBody(t, rec, &payload)
	msg, _ := payload["message"].(string)
	if !strings.Contains(msg, "database is closed") {
		t.Fatalf("message %q does not carry the store failure", msg)
	}
}

func TestStoreFailureReturns500WithMessage(t *testing.T) {
	store := &stubStore{queryFn: func(context.Context, string, string, domain.Query) ([]domain.Document, error) {
		return nil, &domain.StoreError{Op: "queryDocuments", Link: "/dbs/imdb/colls/movies", Err: errors.New("request rate is large")}
	}}
	h := newRouter(t, store, "")

	rec := do(t, h, http.MethodGet, "/api/movies", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "request rate is large") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthorizeRequiresValidToken(t *testing.T) {
	const key = "signing-key"
	h := newRouter(t, &stubStore{}, key)

	if rec := do(t, h, http.MethodGet, "/api/genres", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/genres", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/genres", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with tampered token, got %d", rec.Code)
	}
}

func TestMetricsRequiresTelemetryKey(t *testing.T) {
	h := newRouter(t, &stubStore{}, "")
	do(t, h, http.MethodGet, "/api/genres", "")

	if rec := do(t, h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+testTelemetryKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `helium_events_total{name="get all genres"} 1`) {
		t.Fatalf("event counter missing from metrics output")
	}
}

func TestCORSHeaders(t *testing.T) {
	h := newRouter(t, &stubStore{}, "")

	rec := do(t, h, http.MethodOptions, "/api/movies", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestPreflightRequestsAreCounted(t *testing.T) {
	h := newRouter(t, &stubStore{}, "")
	do(t, h, http.MethodOptions, "/api/movies", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+testTelemetryKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `helium_http_requests_total{method="OPTIONS",status="204"} 1`) {
		t.Fatalf("preflight request missing from metrics output")
	}
}

func TestOpenAPIEndpoint(t *testing.T) {
	h := newRouter(t, &stubStore{}, "")

	rec := do(t, h, http.MethodGet, "/api/openapi.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestWriteJSONEncodeErrorHandled(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"bad": func() {}})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}
