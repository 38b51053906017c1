package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratedigger/trackmatch/internal/config"
	"github.com/cratedigger/trackmatch/internal/resilience"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(config.CatalogConfig{
		BaseURL:        srv.URL,
		SearchEndpoint: "/api/v4/catalog/search",
		SearchPagePath: "/search",
		UserAgent:      "test-agent",
		RequestsPerSec: 1000,
		Burst:          1000,
	}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestSearchEndpoint(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/catalog/search", r.URL.Path)
		assert.Equal(t, "strobe deadmau5", r.URL.Query().Get("q"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracks":{"data":[
			{"id":123,"slug":"strobe","name":"Strobe","mix_name":"Extended Mix","artists":[{"name":"deadmau5"}]},
			{"id":0,"slug":"ignored","name":"No ID"}
		]}}`))
	}))

	refs, err := c.SearchEndpoint(context.Background(), "strobe deadmau5", 10)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	assert.Equal(t, "Strobe (Extended Mix)", refs[0].Title)
	assert.Equal(t, []string{"deadmau5"}, refs[0].Artists)
	assert.Contains(t, refs[0].URL, "/track/strobe/123")
}

func TestSearchEndpoint_FlatList(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":7,"slug":"anthem","name":"Anthem"}]}`))
	}))

	refs, err := c.SearchEndpoint(context.Background(), "anthem", 0)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Contains(t, refs[0].URL, "/track/anthem/7")
}

func TestGet_RateLimitClassified(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.FetchPage(context.Background(), c.BaseURL().String()+"/track/x/1")
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
}

func TestGet_TransientClassified(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.FetchPage(context.Background(), c.BaseURL().String()+"/track/x/1")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGet_ClientErrorFailsFast(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.FetchPage(context.Background(), c.BaseURL().String()+"/track/x/1")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
	assert.False(t, resilience.IsRateLimited(err))
}

func TestGet_BlockDetected(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html>Checking your browser</html>`))
	}))

	_, err := c.FetchSearchPage(context.Background(), "strobe")
	require.Error(t, err)

	var be *BlockError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, BlockChallenge, be.Type)
}

func TestDetectBlock(t *testing.T) {
	blocked, typ := DetectBlock(200, http.Header{}, []byte("You need to enable JavaScript to run this app"))
	assert.True(t, blocked)
	assert.Equal(t, BlockJSShell, typ)

	blocked, typ = DetectBlock(200, http.Header{}, []byte(`<div class="g-recaptcha"></div>`))
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, typ)

	blocked, _ = DetectBlock(200, http.Header{}, []byte("<html>normal page</html>"))
	assert.False(t, blocked)

	blocked, _ = DetectBlock(503, http.Header{}, []byte("plain maintenance page"))
	assert.False(t, blocked, "503 without challenge markers is transient, not a block")
}
