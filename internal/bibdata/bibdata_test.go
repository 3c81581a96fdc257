package bibdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{
  "ISBN:9780306406157": {
    "title": "Example Treatise",
    "authors": [{"name": "A. Writer"}, {"name": "B. Coauthor"}],
    "publishers": [{"name": "Example House"}],
    "publish_date": "1998",
    "number_of_pages": 312,
    "cover": {"medium": "https://covers.example.org/m.jpg"}
  }
}`

func TestLookupFindsRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "ISBN:9780306406157", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleRecord))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, srv.Client())
	book, err := client.Lookup(context.Background(), "0-306-40615-2") // ISBN-10 form
	require.NoError(t, err)

	assert.Equal(t, "0306406152", book.ISBN)
	assert.Equal(t, "Example Treatise", book.Title)
	assert.Equal(t, []string{"A. Writer", "B. Coauthor"}, book.Authors)
	assert.Equal(t, []string{"Example House"}, book.Publishers)
	assert.Equal(t, "1998", book.PublishDate)
	assert.Equal(t, 312, book.PageCount)
	assert.Equal(t, "https://covers.example.org/m.jpg", book.CoverURL)
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, srv.Client())
	_, err := client.Lookup(context.Background(), "9788535914849")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupRejectsInvalidISBN(t *testing.T) {
	client := NewClient(Config{}, nil)
	_, err := client.Lookup(context.Background(), "not-a-book")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ISBN")
}

func TestLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL}, srv.Client())
	_, err := client.Lookup(context.Background(), "9788535914849")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond}, srv.Client())
	_, err := client.Lookup(context.Background(), "9788535914849")
	require.Error(t, err)
}
