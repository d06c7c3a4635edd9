package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/readinglist"
	readinghttp "github.com/fwojciec/readinglist/http"
	"github.com/fwojciec/readinglist/mock"
)

// processorMock implements readinghttp.Processor with function fields,
// in the same style as the mock package.
type processorMock struct {
	SubmitFn func(ctx context.Context, url string) (*readinglist.Item, error)
	CancelFn func(id string) bool
	RemoveFn func(ctx context.Context, id string) error
	ClearFn  func(ctx context.Context) error
}

func (m *processorMock) Submit(ctx context.Context, url string) (*readinglist.Item, error) {
	return m.SubmitFn(ctx, url)
}

func (m *processorMock) Cancel(id string) bool { return m.CancelFn(id) }

func (m *processorMock) Remove(ctx context.Context, id string) error {
	return m.RemoveFn(ctx, id)
}

func (m *processorMock) Clear(ctx context.Context) error { return m.ClearFn(ctx) }

func newTestServer() (*readinghttp.Server, *processorMock, *mock.ItemService) {
	processor := &processorMock{}
	items := &mock.ItemService{}

	s := readinghttp.NewServer()
	s.Processor = processor
	s.ItemService = items
	return s, processor, items
}

func doJSON(t *testing.T, s *readinghttp.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer()
	w := doJSON(t, s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_ScrapeURL(t *testing.T) {
	t.Parallel()

	t.Run("returns extracted content", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
			assert.Equal(t, "https://example.com/post", url)
			return "<p>Hello world</p>", nil
		}}
		s.Extractor = &mock.Extractor{ExtractFn: func(markup string) string {
			return "Hello world"
		}}

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"https://example.com/post"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Success bool   `json:"success"`
			Content string `json:"content"`
		}
		decodeBody(t, w, &body)
		assert.True(t, body.Success)
		assert.Equal(t, "Hello world", body.Content)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Valid URL is required"}`, w.Body.String())
	})

	t.Run("rejects malformed URL", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"not a url"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Invalid URL format"}`, w.Body.String())
	})

	t.Run("reports pages with no readable content", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
			return "<script>x()</script>", nil
		}}
		s.Extractor = &mock.Extractor{ExtractFn: func(markup string) string { return "" }}

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"https://example.com"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"No readable content found in the URL"}`, w.Body.String())
	})

	t.Run("forwards upstream fetch status", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
			return "", readinglist.UpstreamErrorf(http.StatusNotFound, "Failed to fetch URL: %d", http.StatusNotFound)
		}}

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"https://example.com/gone"}`)

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Failed to fetch URL: 404"}`, w.Body.String())
	})

	t.Run("maps fetch timeout to 408", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
			return "", readinglist.Errorf(readinglist.ETIMEOUT, "Request timeout - URL took too long to load")
		}}

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"https://example.com/slow"}`)

		require.Equal(t, http.StatusRequestTimeout, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Request timeout - URL took too long to load"}`, w.Body.String())
	})

	t.Run("maps network failure to 500", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
			return "", readinglist.Errorf(readinglist.EUNAVAILABLE, "Failed to fetch URL: connection refused")
		}}

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"https://example.com/down"}`)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Failed to fetch URL: connection refused"}`, w.Body.String())
	})

	t.Run("bounds content at 10000 characters", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		long := strings.Repeat("é", 12000)
		s.Fetcher = &mock.Fetcher{FetchFn: func(ctx context.Context, url string) (string, error) {
			return long, nil
		}}
		s.Extractor = &mock.Extractor{ExtractFn: func(markup string) string { return markup }}

		w := doJSON(t, s, http.MethodPost, "/api/scrape-url", `{"url":"https://example.com/long"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Content string `json:"content"`
		}
		decodeBody(t, w, &body)
		assert.Equal(t, 10000, len([]rune(body.Content)))
	})
}

func TestServer_Summarize(t *testing.T) {
	t.Parallel()

	t.Run("returns summary and topics", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Summarizer = &mock.Summarizer{SummarizeFn: func(ctx context.Context, text string) (*readinglist.SummarizeResult, error) {
			assert.Equal(t, "Some article text.", text)
			return &readinglist.SummarizeResult{Summary: "A summary.", Topics: []string{"go", "testing"}}, nil
		}}

		w := doJSON(t, s, http.MethodPost, "/api/summarize", `{"content":"Some article text.","url":"https://example.com"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"summary":"A summary.","topics":["go","testing"]}`, w.Body.String())
	})

	t.Run("topics is always an array", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Summarizer = &mock.Summarizer{SummarizeFn: func(ctx context.Context, text string) (*readinglist.SummarizeResult, error) {
			return &readinglist.SummarizeResult{Summary: "Plain reply."}, nil
		}}

		w := doJSON(t, s, http.MethodPost, "/api/summarize", `{"content":"text"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"topics":[]`)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Summarizer = &mock.Summarizer{SummarizeFn: func(ctx context.Context, text string) (*readinglist.SummarizeResult, error) {
			return nil, readinglist.Errorf(readinglist.EINVALID, "Valid content is required")
		}}

		w := doJSON(t, s, http.MethodPost, "/api/summarize", `{"content":""}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Valid content is required"}`, w.Body.String())
	})

	t.Run("forwards upstream summarizer status", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()
		s.Summarizer = &mock.Summarizer{SummarizeFn: func(ctx context.Context, text string) (*readinglist.SummarizeResult, error) {
			return nil, readinglist.UpstreamErrorf(http.StatusTooManyRequests, "Failed to summarize content")
		}}

		w := doJSON(t, s, http.MethodPost, "/api/summarize", `{"content":"text"}`)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Failed to summarize content"}`, w.Body.String())
	})
}

func TestServer_SubmitItem(t *testing.T) {
	t.Parallel()

	t.Run("accepts a URL for background processing", func(t *testing.T) {
		t.Parallel()
		s, processor, _ := newTestServer()
		processor.SubmitFn = func(ctx context.Context, url string) (*readinglist.Item, error) {
			require.Equal(t, "https://example.com/post", url)
			return &readinglist.Item{
				ID:     "item-1",
				URL:    url,
				Title:  "example.com",
				Status: readinglist.StatusPending,
			}, nil
		}

		w := doJSON(t, s, http.MethodPost, "/api/items", `{"url":"https://example.com/post"}`)

		require.Equal(t, http.StatusAccepted, w.Code)
		var item readinglist.Item
		decodeBody(t, w, &item)
		assert.Equal(t, "item-1", item.ID)
		assert.Equal(t, readinglist.StatusPending, item.Status)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()
		s, _, _ := newTestServer()

		w := doJSON(t, s, http.MethodPost, "/api/items", `not json`)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reports duplicate URLs as conflict", func(t *testing.T) {
		t.Parallel()
		s, processor, _ := newTestServer()
		processor.SubmitFn = func(ctx context.Context, url string) (*readinglist.Item, error) {
			return nil, readinglist.Errorf(readinglist.ECONFLICT, "URL already in reading list")
		}

		w := doJSON(t, s, http.MethodPost, "/api/items", `{"url":"https://example.com/post"}`)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"URL already in reading list"}`, w.Body.String())
	})
}

func TestServer_ListItems(t *testing.T) {
	t.Parallel()

	t.Run("returns items", func(t *testing.T) {
		t.Parallel()
		s, _, items := newTestServer()
		items.FindItemsFn = func(ctx context.Context, filter readinglist.ItemFilter) ([]*readinglist.Item, error) {
			return []*readinglist.Item{
				{ID: "b", URL: "https://example.com/b", Status: readinglist.StatusPending},
				{ID: "a", URL: "https://example.com/a", Status: readinglist.StatusSuccess},
			}, nil
		}

		w := doJSON(t, s, http.MethodGet, "/api/items", "")

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Items []*readinglist.Item `json:"items"`
		}
		decodeBody(t, w, &body)
		require.Len(t, body.Items, 2)
		assert.Equal(t, "b", body.Items[0].ID)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		t.Parallel()
		s, _, items := newTestServer()
		items.FindItemsFn = func(ctx context.Context, filter readinglist.ItemFilter) ([]*readinglist.Item, error) {
			return nil, nil
		}

		w := doJSON(t, s, http.MethodGet, "/api/items", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"items":[]`)
	})
}

func TestServer_GetItem(t *testing.T) {
	t.Parallel()

	t.Run("returns item by id", func(t *testing.T) {
		t.Parallel()
		s, _, items := newTestServer()
		items.FindItemByIDFn = func(ctx context.Context, id string) (*readinglist.Item, error) {
			require.Equal(t, "item-1", id)
			return &readinglist.Item{ID: id, URL: "https://example.com", Status: readinglist.StatusSuccess}, nil
		}

		w := doJSON(t, s, http.MethodGet, "/api/items/item-1", "")

		require.Equal(t, http.StatusOK, w.Code)
		var item readinglist.Item
		decodeBody(t, w, &item)
		assert.Equal(t, "item-1", item.ID)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		t.Parallel()
		s, _, items := newTestServer()
		items.FindItemByIDFn = func(ctx context.Context, id string) (*readinglist.Item, error) {
			return nil, readinglist.Errorf(readinglist.ENOTFOUND, "item not found")
		}

		w := doJSON(t, s, http.MethodGet, "/api/items/nope", "")

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"item not found"}`, w.Body.String())
	})
}

func TestServer_CancelItem(t *testing.T) {
	t.Parallel()

	t.Run("cancels an in-flight item", func(t *testing.T) {
		t.Parallel()
		s, processor, _ := newTestServer()
		processor.CancelFn = func(id string) bool {
			require.Equal(t, "item-1", id)
			return true
		}

		w := doJSON(t, s, http.MethodPost, "/api/items/item-1/cancel", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		t.Parallel()
		s, processor, items := newTestServer()
		processor.CancelFn = func(id string) bool { return false }
		items.FindItemByIDFn = func(ctx context.Context, id string) (*readinglist.Item, error) {
			return nil, readinglist.Errorf(readinglist.ENOTFOUND, "item not found")
		}

		w := doJSON(t, s, http.MethodPost, "/api/items/nope/cancel", "")

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("finished items cannot be cancelled", func(t *testing.T) {
		t.Parallel()
		s, processor, items := newTestServer()
		processor.CancelFn = func(id string) bool { return false }
		items.FindItemByIDFn = func(ctx context.Context, id string) (*readinglist.Item, error) {
			return &readinglist.Item{ID: id, Status: readinglist.StatusSuccess}, nil
		}

		w := doJSON(t, s, http.MethodPost, "/api/items/item-1/cancel", "")

		require.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"item is not pending"}`, w.Body.String())
	})
}

func TestServer_DeleteItem(t *testing.T) {
	t.Parallel()

	t.Run("removes an item", func(t *testing.T) {
		t.Parallel()
		s, processor, _ := newTestServer()
		processor.RemoveFn = func(ctx context.Context, id string) error {
			require.Equal(t, "item-1", id)
			return nil
		}

		w := doJSON(t, s, http.MethodDelete, "/api/items/item-1", "")

		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		t.Parallel()
		s, processor, _ := newTestServer()
		processor.RemoveFn = func(ctx context.Context, id string) error {
			return readinglist.Errorf(readinglist.ENOTFOUND, "item not found")
		}

		w := doJSON(t, s, http.MethodDelete, "/api/items/nope", "")

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_ClearItems(t *testing.T) {
	t.Parallel()

	s, processor, _ := newTestServer()
	called := false
	processor.ClearFn = func(ctx context.Context) error {
		called = true
		return nil
	}

	w := doJSON(t, s, http.MethodDelete, "/api/items", "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, called)
}
