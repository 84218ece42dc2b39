package trakt

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}

func newTestClient(rt roundTripFunc) *Client {
	c := NewClient("client-id", "client-secret")
	c.httpClient = &http.Client{Transport: rt}
	return c
}

func TestDoGETSetsAPIHeaders(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("trakt-api-key") != "client-id" {
			t.Fatalf("missing api key header")
		}
		if req.Header.Get("trakt-api-version") != "2" {
			t.Fatalf("missing api version header")
		}
		return jsonResponse(http.StatusOK, `[]`, nil), nil
	})

	if _, err := client.GetPopularMovies(context.Background(), 5); err != nil {
		t.Fatalf("GetPopularMovies failed: %v", err)
	}
}

func TestGetTrendingMoviesUnwrapsEntries(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/movies/trending" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if req.URL.Query().Get("limit") != "2" {
			t.Fatalf("expected limit param")
		}
		return jsonResponse(http.StatusOK, `[
			{"watchers": 105, "movie": {"title": "First", "year": 2024, "ids": {"trakt": 1, "tmdb": 11}}},
			{"watchers": 90, "movie": {"title": "Second", "year": 2023, "ids": {"trakt": 2, "tmdb": 22}}}
		]`, nil), nil
	})

	trending, err := client.GetTrendingMovies(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetTrendingMovies failed: %v", err)
	}
	if len(trending) != 2 || trending[0].Watchers != 105 || trending[0].Movie.Title != "First" {
		t.Fatalf("unexpected trending: %+v", trending)
	}
}

func TestSearchMovieFirstResult(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/search/movie" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusOK,
			`[{"movie": {"title": "Hit", "year": 1999, "ids": {"trakt": 7}}}]`, nil), nil
	})

	movie, err := client.SearchMovie(context.Background(), "hit")
	if err != nil {
		t.Fatalf("SearchMovie failed: %v", err)
	}
	if movie == nil || movie.IDs.Trakt != 7 {
		t.Fatalf("unexpected movie: %+v", movie)
	}
}

func TestSearchMovieNoMatch(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[]`, nil), nil
	})

	movie, err := client.SearchMovie(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("SearchMovie failed: %v", err)
	}
	if movie != nil {
		t.Fatalf("expected nil for no results, got %+v", movie)
	}
}

func TestSearchListsFlattensWrapper(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[
			{"list": {"name": "Best Horror", "description": "scary", "item_count": 50, "likes": 12,
				"user": {"username": "fan1"}, "ids": {"trakt": 900, "slug": "best-horror"}}}
		]`, nil), nil
	})

	lists, err := client.SearchLists(context.Background(), "horror", 10)
	if err != nil {
		t.Fatalf("SearchLists failed: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected one list, got %d", len(lists))
	}
	if lists[0].User != "fan1" || lists[0].Slug != "best-horror" || lists[0].ListID != "900" {
		t.Fatalf("unexpected list: %+v", lists[0])
	}
}

func TestGetListItemsPagination(t *testing.T) {
	var capturedPage, capturedLimit string
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/users/fan1/lists/best-horror/items/movies" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		capturedPage = req.URL.Query().Get("page")
		capturedLimit = req.URL.Query().Get("limit")

		header := make(http.Header)
		header.Set("X-Pagination-Item-Count", "250")
		return jsonResponse(http.StatusOK, `[
			{"rank": 201, "listed_at": "2024-01-01T00:00:00Z", "movie": {"title": "A", "ids": {"tmdb": 1}}},
			{"movie": {"title": "B", "ids": {"tmdb": 2}}}
		]`, header), nil
	})

	items, total, err := client.GetListItems(context.Background(), "fan1", "best-horror", 200, 100)
	if err != nil {
		t.Fatalf("GetListItems failed: %v", err)
	}
	if capturedPage != "3" || capturedLimit != "100" {
		t.Fatalf("expected page=3 limit=100, got page=%s limit=%s", capturedPage, capturedLimit)
	}
	if total != 250 {
		t.Fatalf("expected total from header, got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Rank != 201 {
		t.Fatalf("explicit rank must win, got %d", items[0].Rank)
	}
	if items[1].Rank != 202 {
		t.Fatalf("missing rank must derive from offset, got %d", items[1].Rank)
	}
}

func TestGetListItemsTotalFallsBackToPageSize(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`[{"rank": 1, "movie": {"title": "Only", "ids": {"tmdb": 5}}}]`, nil), nil
	})

	_, total, err := client.GetListItems(context.Background(), "u", "l", 0, 100)
	if err != nil {
		t.Fatalf("GetListItems failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected fallback total 1, got %d", total)
	}
}

func TestHasCredentials(t *testing.T) {
	if NewClient("", "").HasCredentials() {
		t.Fatalf("empty client id must report no credentials")
	}
	if !NewClient("id", "").HasCredentials() {
		t.Fatalf("client id alone is sufficient")
	}
}
