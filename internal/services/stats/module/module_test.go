package module

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"ghrepostats/internal/adapters/snapshot"
	"ghrepostats/internal/core/reconcile"
	"ghrepostats/internal/platform/config"
	"ghrepostats/internal/platform/config/credentials"
	perr "ghrepostats/internal/platform/errors"
	kit "ghrepostats/internal/platform/testkit"
)

func newServer(t *testing.T) (*httptest.Server, *snapshot.Cache) {
	t.Helper()
	return newServerWith(t, true)
}

func newServerWith(t *testing.T, docs bool) (*httptest.Server, *snapshot.Cache) {
	t.Helper()
	dir := t.TempDir()
	m, err := New(context.Background(), Options{Settings: config.Settings{CacheDir: dir, CacheBackend: config.BackendFile, APIDocs: docs}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	r := chi.NewRouter()
	m.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, snapshot.NewCache(snapshot.NewFileStore(dir))
}

type envelope struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Data       struct {
		Status string `json:"status"`
		Build  struct {
			Service string `json:"service"`
		} `json:"build"`
		Repo   string `json:"repo"`
		Kind   string `json:"kind"`
		Title  string `json:"title"`
		Points []struct {
			Value int `json:"value"`
		} `json:"points"`
	} `json:"data"`
}

func get(t *testing.T, url string) (*http.Response, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	var env envelope
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp, env
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	resp, env := get(t, srv.URL+"/v1/healthz")
	if resp.StatusCode != http.StatusOK || env.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}
	if env.Data.Status != "ok" || env.Data.Build.Service != "ghrepostats-api" {
		t.Fatalf("healthz data = %+v", env.Data)
	}
}

func TestSeriesFromSnapshot(t *testing.T) {
	srv, cache := newServer(t)
	key := snapshot.Key{Owner: "octo", Name: "cat", Kind: snapshot.KindStars}
	stars := []reconcile.Star{
		{StarredAt: kit.Day(2020, 1, 1), UserID: 1},
		{StarredAt: kit.Day(2020, 1, 2), UserID: 2},
	}
	if err := cache.SaveStars(context.Background(), key, snapshot.Stars{Stars: stars}); err != nil {
		t.Fatal(err)
	}

	resp, env := get(t, srv.URL+"/v1/repos/octo/cat/series/stars")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if env.Data.Repo != "octo/cat" || env.Data.Kind != "stars" || len(env.Data.Points) != 2 || env.Data.Points[1].Value != 2 {
		t.Fatalf("data = %+v", env.Data)
	}

	csvResp, _ := get(t, srv.URL+"/v1/repos/octo/cat/series/stars?format=csv")
	if csvResp.Header.Get("Content-Type") != "text/csv; charset=utf-8" {
		t.Fatalf("csv content type = %q", csvResp.Header.Get("Content-Type"))
	}

	pngResp, _ := get(t, srv.URL+"/v1/repos/octo/cat/series/stars?format=png")
	if _, err := png.DecodeConfig(pngResp.Body); err != nil {
		t.Fatalf("png body: %v", err)
	}
}

func TestSeriesErrors(t *testing.T) {
	srv, _ := newServer(t)
	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "no snapshot", path: "/v1/repos/octo/cat/series/issues", want: http.StatusNotFound},
		{name: "uncached kind", path: "/v1/repos/octo/cat/series/commits", want: http.StatusBadRequest},
		{name: "bad owner", path: "/v1/repos/-bad-/cat/series/stars", want: http.StatusBadRequest},
		{name: "bad format", path: "/v1/repos/octo/cat/series/stars?format=svg", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.want || env.Error == "" {
				t.Fatalf("status = %d, env = %+v", resp.StatusCode, env)
			}
		})
	}
}

func TestNewPropagatesStoreErrors(t *testing.T) {
	kit.Serial(t)
	kit.Swap(t, &openStore, func(context.Context, config.Settings) (snapshot.Store, error) {
		return nil, perr.Configf("cache offline")
	})
	if _, err := New(context.Background(), Options{}); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("want config error, got %v", err)
	}
}

func TestNewWithCredentialsBuildsClient(t *testing.T) {
	m, err := New(context.Background(), Options{
		Settings:    config.Settings{CacheDir: t.TempDir(), CacheBackend: config.BackendFile},
		Credentials: &credentials.Credentials{Token: "t"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()
	if m.Service() == nil || m.Name() != "stats" || m.Prefix() != "/v1" {
		t.Fatalf("module = %+v", m)
	}
}

func TestDocsServeGeneratedSpec(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/v1/docs/doc.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var spec struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spec.OpenAPI != "3.0.3" || spec.Info.Title != "ghrepostats API" {
		t.Fatalf("spec = %+v", spec)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/v1" {
		t.Fatalf("servers = %+v", spec.Servers)
	}
	for _, p := range []string{"/healthz", "/repos/{owner}/{name}/series/{kind}"} {
		if _, ok := spec.Paths[p]; !ok {
			t.Fatalf("missing path %s in %v", p, spec.Paths)
		}
	}
}

func TestDocsDisabled(t *testing.T) {
	srv, _ := newServerWith(t, false)
	resp, err := http.Get(srv.URL + "/v1/docs/doc.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
