package tmdb

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(rt roundTripFunc) *Client {
	c := NewClient("token")
	c.httpClient = &http.Client{Transport: rt}
	return c
}

func TestGetMovieParsesEnrichment(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("missing bearer token")
		}
		if req.URL.Path != "/3/movie/123" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.URL.Query().Get("append_to_response") != "keywords" {
			t.Fatalf("expected keywords appended")
		}
		return jsonResponse(http.StatusOK, `{
			"id": 123, "title": "The Toxic Avenger",
			"budget": 500000, "revenue": 800000,
			"vote_average": 6.2, "vote_count": 900,
			"keywords": {"keywords": [{"id": 1, "name": "gore"}]},
			"production_companies": [{"name": "Troma"}]
		}`), nil
	})

	movie, err := client.GetMovie(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if movie == nil {
		t.Fatalf("expected movie, got nil")
	}
	if movie.Title != "The Toxic Avenger" || movie.Budget != 500000 {
		t.Fatalf("unexpected movie: %+v", movie)
	}
	if len(movie.Keywords) != 1 || movie.Keywords[0].Name != "gore" {
		t.Fatalf("keywords not flattened: %+v", movie.Keywords)
	}
	if len(movie.ProductionCompanies) != 1 || movie.ProductionCompanies[0] != "Troma" {
		t.Fatalf("companies not flattened: %+v", movie.ProductionCompanies)
	}
}

func TestGetMovieNotFoundReturnsNil(t *testing.T) {
	var calls int32
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusNotFound, `{"status_message":"not found"}`), nil
	})

	movie, err := client.GetMovie(context.Background(), "999")
	if err != nil {
		t.Fatalf("expected nil error on 404, got %v", err)
	}
	if movie != nil {
		t.Fatalf("expected nil movie on 404")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", n)
	}

	// The miss is cached: a second lookup must not hit the API.
	if _, err := client.GetMovie(context.Background(), "999"); err != nil {
		t.Fatalf("cached miss lookup failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected cached miss, got %d calls", n)
	}
}

func TestGetMovieRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return jsonResponse(http.StatusBadGateway, ""), nil
		}
		return jsonResponse(http.StatusOK, `{"id": 5, "title": "Recovered"}`), nil
	})

	movie, err := client.GetMovie(context.Background(), "5")
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if movie == nil || movie.Title != "Recovered" {
		t.Fatalf("unexpected movie: %+v", movie)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestGetMovieUsesCache(t *testing.T) {
	var calls int32
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(http.StatusOK, `{"id": 7, "title": "Cached"}`), nil
	})

	for i := 0; i < 3; i++ {
		if _, err := client.GetMovie(context.Background(), "7"); err != nil {
			t.Fatalf("GetMovie failed: %v", err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one upstream call, got %d", n)
	}
}

func TestSearchMovieFirstResult(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/3/search/movie" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.URL.Query().Get("year") != "1984" {
			t.Fatalf("expected year param")
		}
		return jsonResponse(http.StatusOK, `{"results":[{"id": 42},{"id": 43}]}`), nil
	})

	id, err := client.SearchMovie(context.Background(), "The Toxic Avenger", 1984)
	if err != nil {
		t.Fatalf("SearchMovie failed: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected first result 42, got %d", id)
	}
}

func TestSearchMovieNoResults(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":[]}`), nil
	})

	id, err := client.SearchMovie(context.Background(), "nope", 0)
	if err != nil {
		t.Fatalf("SearchMovie failed: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected 0 for no results, got %d", id)
	}
}
