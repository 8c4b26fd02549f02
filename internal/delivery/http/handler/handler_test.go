package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nearby-jobs/internal/delivery/http/middleware"
	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"
	"nearby-jobs/internal/infrastructure/cache"
	"nearby-jobs/internal/location"
	"nearby-jobs/internal/pkg/jwt"
	"nearby-jobs/internal/pkg/response"
	"nearby-jobs/internal/region"
	"nearby-jobs/internal/search"
	"nearby-jobs/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]job.Job
}

func (r *memJobs) Create(_ context.Context, j job.Job) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = j
	return j, nil
}

func (r *memJobs) Update(_ context.Context, j job.Job) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return job.Job{}, job.ErrNotFound
	}
	r.jobs[j.ID] = j
	return j, nil
}

func (r *memJobs) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return job.ErrNotFound
	}
	delete(r.jobs, id)
	return nil
}

func (r *memJobs) GetByID(_ context.Context, id uuid.UUID) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *memJobs) FetchJobs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]job.Job{}
	for _, id := range ids {
		if j, ok := r.jobs[id]; ok {
			out[id] = j
		}
	}
	return out, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app *fiber.App
	jwt *jwt.HMACService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := &memJobs{jobs: map[uuid.UUID]job.Job{}}
	locs := location.NewStore(nil, nil)
	catalog := region.NewCatalog(nil, nil)
	catalog.Replace([]job.Region{{Code: "JKT", Name: "Jakarta", Bounds: geo.Box{MinLat: -6.38, MinLng: 106.68, MaxLat: -6.08, MaxLng: 106.98}}})

	rc := usecase.NewResultCache(cache.NewMemory(time.Minute), time.Minute, nil)
	inv := usecase.NewInvalidator(rc, usecase.InvalidatorOptions{}, nil)
	engine := search.NewEngine(locs, repo, catalog, nil)
	composer := usecase.NewComposer(usecase.DefaultComposerOptions(), catalog)

	jwtSvc := jwt.NewHMACService("secret", "nearby-jobs", time.Hour)
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())

	auth := middleware.NewAuthMiddleware(jwtSvc)
	NewHealthHandler(pinger{}, map[string]Pinger{"cache": pinger{err: errors.New("down")}}).RegisterRoutes(app)
	api := app.Group("/api/v1")
	NewNearbyHandler(usecase.NewNearbyJobsUsecase(composer, engine, repo, rc, time.Second, nil)).RegisterRoutes(api)
	NewSuggestHandler(usecase.NewSuggestUsecase(catalog)).RegisterRoutes(api)
	NewRegionHandler(usecase.NewRegionUsecase(catalog, locs)).RegisterRoutes(api)
	NewJobsHandler(usecase.NewJobUsecase(repo, locs, inv, nil)).RegisterRoutes(api, auth.Middleware())

	return &testServer{app: app, jwt: jwtSvc}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp, env
}

func (s *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(userID, jwt.RoleUser)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func TestJobsAndNearby_EndToEnd(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, uuid.New())

	resp, _ := s.do(t, http.MethodPost, "/api/v1/jobs", "", `{"title":"t","company":"c","lat":-6.2,"lng":106.8}`)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, env := s.do(t, http.MethodPost, "/api/v1/jobs", owner, `{"title":"Barista","company":"Kopi","lat":-6.2,"lng":106.8}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d %s", resp.StatusCode, env.Message)
	}
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == uuid.Nil {
		t.Fatalf("expected job id, err=%v", err)
	}

	resp, env = s.do(t, http.MethodGet, "/api/v1/jobs/nearby?lat=-6.21&lng=106.8&radius=5", "", "")
	if resp.StatusCode != fiber.StatusOK || resp.Header.Get(response.CacheHeader) != "MISS" {
		t.Fatalf("unexpected response %d cache=%s", resp.StatusCode, resp.Header.Get(response.CacheHeader))
	}
	var page struct {
		Items []struct {
			Job        struct{ ID uuid.UUID } `json:"job"`
			DistanceKm float64                `json:"distance_km"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 || page.Items[0].Job.ID != created.ID || page.Items[0].DistanceKm <= 0 {
		t.Fatalf("unexpected page %+v", page)
	}

	resp, _ = s.do(t, http.MethodGet, "/api/v1/jobs/nearby?radius=5&lng=106.8&lat=-6.21", "", "")
	if resp.Header.Get(response.CacheHeader) != "HIT" {
		t.Fatalf("expected cache hit for reordered params")
	}

	other := s.token(t, uuid.New())
	resp, _ = s.do(t, http.MethodDelete, "/api/v1/jobs/"+created.ID.String(), other, "")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", resp.StatusCode)
	}

	resp, _ = s.do(t, http.MethodPatch, "/api/v1/jobs/"+created.ID.String(), owner, `{"status":"closed"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}
	resp, env = s.do(t, http.MethodGet, "/api/v1/jobs/nearby?lat=-6.21&lng=106.8&radius=5", "", "")
	if err := json.Unmarshal(env.Data, &page); err != nil || page.Total != 0 || resp.Header.Get(response.CacheHeader) != "MISS" {
		t.Fatalf("closed job should leave the default search, got %+v", page)
	}

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/jobs/"+created.ID.String(), owner, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.StatusCode)
	}
	resp, _ = s.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID.String(), "", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestNearby_InvalidInput(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		query string
		field string
	}{
		{"lat=100&lng=0", "lat"},
		{"lat=0&lng=0&radius=-1", "radius"},
		{"lat=0&lng=0&colour=red", "colour"},
		{"lat=0&lng=0&region=NOPE", "region"},
	}
	for _, tc := range cases {
		resp, env := s.do(t, http.MethodGet, "/api/v1/jobs/nearby?"+tc.query, "", "")
		if resp.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.query, resp.StatusCode)
		}
		var data struct {
			Field string `json:"field"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %s", tc.query, tc.field, env.Data)
		}
	}
}

func TestCreateJob_RequiresCoordinates(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, http.MethodPost, "/api/v1/jobs", s.token(t, uuid.New()), `{"title":"t","company":"c"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRegions(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, uuid.New())
	s.do(t, http.MethodPost, "/api/v1/jobs", owner, `{"title":"a","company":"c","lat":-6.2,"lng":106.8}`)

	resp, env := s.do(t, http.MethodGet, "/api/v1/regions/jkt", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r struct {
		Code     string `json:"code"`
		JobCount *int   `json:"job_count"`
	}
	if err := json.Unmarshal(env.Data, &r); err != nil || r.Code != "JKT" || r.JobCount == nil || *r.JobCount != 1 {
		t.Fatalf("unexpected region %s", env.Data)
	}

	resp, _ = s.do(t, http.MethodGet, "/api/v1/regions/XYZ", "", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRegionSuggestAndPopular(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, uuid.New())
	s.do(t, http.MethodPost, "/api/v1/jobs", owner, `{"title":"a","company":"c","lat":-6.2,"lng":106.8}`)

	resp, env := s.do(t, http.MethodGet, "/api/v1/regions/suggest?q=jak", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sug struct {
		Query       string `json:"query"`
		Suggestions []struct {
			Code string `json:"code"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(env.Data, &sug); err != nil || sug.Query != "jak" || len(sug.Suggestions) != 1 || sug.Suggestions[0].Code != "JKT" {
		t.Fatalf("unexpected suggestions %s", env.Data)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/regions/suggest?q=j", "", "")
	if err := json.Unmarshal(env.Data, &sug); err != nil || len(sug.Suggestions) != 0 {
		t.Fatalf("expected no suggestions for a short query, got %s", env.Data)
	}

	resp, env = s.do(t, http.MethodGet, "/api/v1/regions/popular", "", "")
	var pop []struct {
		Code     string `json:"code"`
		JobCount *int   `json:"job_count"`
	}
	if resp.StatusCode != fiber.StatusOK || json.Unmarshal(env.Data, &pop) != nil || len(pop) != 1 || pop[0].Code != "JKT" || pop[0].JobCount == nil || *pop[0].JobCount != 1 {
		t.Fatalf("unexpected popular regions %d %s", resp.StatusCode, env.Data)
	}

	if resp, _ := s.do(t, http.MethodGet, "/api/v1/regions/popular?limit=0", "", ""); resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestJobsAutocomplete(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, http.MethodGet, "/api/v1/jobs/autocomplete?q=ja", "", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 rather than the job lookup route, got %d", resp.StatusCode)
	}
	var ac struct {
		Suggestions []struct {
			Text string `json:"text"`
			Type string `json:"type"`
			Code string `json:"code"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(env.Data, &ac); err != nil || len(ac.Suggestions) != 1 || ac.Suggestions[0].Type != "region" || ac.Suggestions[0].Code != "JKT" {
		t.Fatalf("unexpected autocomplete %s", env.Data)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/jobs/autocomplete?q=nur", "", "")
	if err := json.Unmarshal(env.Data, &ac); err != nil || len(ac.Suggestions) != 1 || ac.Suggestions[0].Text != "nurse" {
		t.Fatalf("unexpected autocomplete %s", env.Data)
	}
}

func TestHealth_Degraded(t *testing.T) {
	s := newTestServer(t)
	resp, env := s.do(t, http.MethodGet, "/health", "", "")
	if resp.StatusCode != fiber.StatusOK || env.Message != "degraded" {
		t.Fatalf("expected degraded 200, got %d %q", resp.StatusCode, env.Message)
	}
}
