package federal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

const sampleResponse = `{
  "opportunitiesData": [
    {
      "title": "Cloud Payment Processing Modernization",
      "fullParentPathName": "GSA.FAS.ITC",
      "responseDeadLine": "2026-09-15",
      "noticeId": "abc123",
      "description": "Replace legacy payment rails with a cloud platform.",
      "estimatedValue": "2 million",
      "pointOfContact": {"email": "co@gsa.gov"}
    },
    {
      "title": "  ",
      "noticeId": "skip-me"
    },
    {
      "title": "Road Salt Procurement",
      "fullParentPathName": "DOT",
      "responseDeadLine": "09/30/2026"
    }
  ]
}`

func testConfig(url string) rfp.FetchConfig {
	return rfp.FetchConfig{
		UserAgent:      "rfp-radar-test/0.1",
		RequestTimeout: 5 * time.Second,
		FederalURL:     url,
	}
}

func TestFetchParsesAndNormalizes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "rfp-radar-test/0.1", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	adapter := New(srv.Client(), zap.NewNop())
	got, err := adapter.Fetch(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	require.Equal(t, "Cloud Payment Processing Modernization", first.Title)
	require.Equal(t, "GSA.FAS.ITC", first.Agency)
	require.Equal(t, "2026-09-15", first.Deadline)
	require.Equal(t, "$2 million", first.Value)
	require.Equal(t, "co@gsa.gov", first.Contact)
	require.Equal(t, "https://sam.gov/opp/abc123", first.URL)
	require.Contains(t, first.Keywords, "cloud")
	require.Contains(t, first.Keywords, "payment")

	// Adapters never set urgency or score.
	require.Empty(t, first.Urgency)
	require.Zero(t, first.Score)

	second := got[1]
	require.Equal(t, "2026-09-30", second.Deadline)
	require.Equal(t, rfp.ValueNotSpecified, second.Value)
	require.Equal(t, rfp.ContactSeePosting, second.Contact)
	require.Equal(t, srv.URL, second.URL)
}

func TestFetchErrorPaths(t *testing.T) {
	t.Parallel()

	t.Run("http error status", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := New(srv.Client(), zap.NewNop()).Fetch(context.Background(), testConfig(srv.URL))
		require.ErrorContains(t, err, "unexpected status 502")
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		_, err := New(srv.Client(), zap.NewNop()).Fetch(context.Background(), testConfig(srv.URL))
		require.ErrorContains(t, err, "decode response")
	})

	t.Run("missing url", func(t *testing.T) {
		t.Parallel()
		_, err := New(nil, zap.NewNop()).Fetch(context.Background(), rfp.FetchConfig{})
		require.ErrorContains(t, err, "no API URL configured")
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := New(srv.Client(), zap.NewNop()).Fetch(ctx, testConfig(srv.URL))
		require.Error(t, err)
	})
}
