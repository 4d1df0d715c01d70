package govtech

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

const listingPage = `<html><body>
<div class="opportunity-item">
  <h3 class="title">Digital Permitting Software Platform</h3>
  <span class="agency">City of Springfield</span>
  <span class="deadline">April 15, 2026</span>
  <span class="value">$1,500,000</span>
  <span class="contact">purchasing@springfield.gov</span>
  <p class="description">Replace the legacy permitting system with a cloud solution.</p>
  <a href="/rfps/42">Details</a>
</div>
<div class="rfp-item">
  <h4>Road Resurfacing</h4>
  <span class="department">County DOT</span>
</div>
<div class="bid-opportunity">
  <h3>No agency listed, skipped</h3>
</div>
</body></html>`

func testConfig(urls ...string) rfp.FetchConfig {
	return rfp.FetchConfig{
		UserAgent:      "rfp-radar-test/0.1",
		RequestTimeout: 5 * time.Second,
		GovtechURLs:    urls,
	}
}

func TestFetchParsesListingPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	got, err := New(zap.NewNop()).Fetch(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	require.Equal(t, "Digital Permitting Software Platform", first.Title)
	require.Equal(t, "City of Springfield", first.Agency)
	require.Equal(t, "2026-04-15", first.Deadline)
	require.Equal(t, "$1500000", first.Value)
	require.Equal(t, "purchasing@springfield.gov", first.Contact)
	require.Equal(t, srv.URL+"/rfps/42", first.URL)
	require.Contains(t, first.Keywords, "digital")
	require.Contains(t, first.Keywords, "software")
	require.Empty(t, first.Urgency)

	second := got[1]
	require.Equal(t, "Road Resurfacing", second.Title)
	require.Equal(t, "County DOT", second.Agency)
	require.Equal(t, rfp.DeadlineTBD, second.Deadline)
	require.Equal(t, rfp.ValueNotSpecified, second.Value)
	require.Equal(t, rfp.ContactSeePosting, second.Contact)
	// A listing without its own link falls back to the page URL, which colly
	// normalizes with a trailing slash.
	require.Equal(t, srv.URL+"/", second.URL)
}

func TestFetchPartialPageFailureTolerated(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	got, err := New(zap.NewNop()).Fetch(context.Background(), testConfig(bad.URL, srv.URL))
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestFetchAllPagesFailing(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer bad.Close()

	_, err := New(zap.NewNop()).Fetch(context.Background(), testConfig(bad.URL))
	require.ErrorContains(t, err, "all 1 pages failed")
}

func TestFetchNoURLsConfigured(t *testing.T) {
	t.Parallel()

	_, err := New(zap.NewNop()).Fetch(context.Background(), rfp.FetchConfig{})
	require.ErrorContains(t, err, "no listing URLs configured")
}
