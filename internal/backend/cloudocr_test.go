package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libriscan/libriscan/internal/frame"
)

func annotateBody(descriptions ...string) string {
	body := `{"responses":[{"textAnnotations":[`
	for i, d := range descriptions {
		if i > 0 {
			body += ","
		}
		body += `{"description":"` + d + `"}`
	}
	return body + `]}]}`
}

func TestCloudOCRDisabledWithoutCredentials(t *testing.T) {
	c := NewCloudOCR(CloudOCRConfig{}, nil)
	assert.False(t, c.Enabled())
	assert.Nil(t, c.Attempt(context.Background(), testFrame(t)))
}

func TestCloudOCRFindsISBN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(annotateBody("Edition notice", "ISBN 978-85-359-1484-9")))
	}))
	defer srv.Close()

	c := NewCloudOCR(CloudOCRConfig{Endpoint: srv.URL, APIKey: "secret"}, srv.Client())
	require.True(t, c.Enabled())

	got := c.Attempt(context.Background(), testFrame(t))
	require.NotNil(t, got)
	assert.Equal(t, "9788535914849", got.Text)
	assert.Equal(t, cloudOCRConfidence, got.Confidence)
	assert.Equal(t, MethodCloudOCR, got.Method)
	assert.Equal(t, "OCR", got.Format)
}

func TestCloudOCRNoISBNShapedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(annotateBody("just prose, no identifiers")))
	}))
	defer srv.Close()

	c := NewCloudOCR(CloudOCRConfig{Endpoint: srv.URL, APIKey: "secret"}, srv.Client())
	assert.Nil(t, c.Attempt(context.Background(), testFrame(t)))
}

func TestCloudOCRServerErrorIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCloudOCR(CloudOCRConfig{Endpoint: srv.URL, APIKey: "secret"}, srv.Client())
	assert.Nil(t, c.Attempt(context.Background(), testFrame(t)))
}

func TestCloudOCRTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(annotateBody("9788535914849")))
	}))
	defer srv.Close()
	defer close(release)

	c := NewCloudOCR(CloudOCRConfig{
		Endpoint: srv.URL,
		APIKey:   "secret",
		Timeout:  50 * time.Millisecond,
	}, srv.Client())

	start := time.Now()
	assert.Nil(t, c.Attempt(context.Background(), testFrame(t)))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCloudOCRDefaultTimeoutApplied(t *testing.T) {
	c := NewCloudOCR(CloudOCRConfig{Endpoint: "http://example.invalid", APIKey: "k"}, nil)
	assert.Equal(t, DefaultCloudOCRTimeout, c.cfg.Timeout)
}
