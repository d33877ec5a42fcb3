package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	var gotField, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotField = r.FormValue("printBackground")
		f, _, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f)
		gotFile = string(data)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/", time.Second).RenderHTML(context.Background(), []byte("<h1>hi</h1>"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "true", gotField)
	assert.Equal(t, "<h1>hi</h1>", gotFile)
}

func TestRenderHTMLFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	client := NewClient(srv.URL, time.Second)

	_, err := client.RenderHTML(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrRender)
	require.Error(t, client.Ping(context.Background()))

	srv.Close()
	_, err = client.RenderHTML(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrRender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.RenderHTML(ctx, []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
	}))
	defer srv.Close()
	require.NoError(t, NewClient(srv.URL, 0).Ping(context.Background()))
}
