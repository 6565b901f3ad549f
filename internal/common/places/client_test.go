package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "careplan-workers/internal/common/errors"
)

func newServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func query() NearbyQuery {
	return NearbyQuery{Latitude: 44.2262, Longitude: -76.4916, Keyword: "counseling", RadiusMeters: 5000}
}

func TestNearbySearch_Success(t *testing.T) {
	server := newServer(t, http.StatusOK, `{
		"status": "OK",
		"html_attributions": [],
		"results": [
			{"name": "Kingston Counselling Centre", "rating": 4.6, "vicinity": "417 Bagot St", "geometry": {"location": {"lat": 44.23, "lng": -76.48}}, "types": ["health"], "place_id": "abc", "opening_hours": {"open_now": true}},
			{"name": "Community Clinic", "vicinity": "1 Main St"}
		]
	}`, func(r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "44.2262,-76.4916", r.URL.Query().Get("location"))
		assert.Equal(t, "5000", r.URL.Query().Get("radius"))
		assert.Equal(t, "counseling", r.URL.Query().Get("keyword"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
	})

	client := NewClient(server.URL, "test-key", 5*time.Second)
	got, err := client.NearbySearch(context.Background(), query())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Kingston Counselling Centre", got[0].Name)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, 4.6, *got[0].Rating)
	require.NotNil(t, got[0].Geometry)
	assert.Equal(t, 44.23, got[0].Geometry.Location.Lat)
	assert.Contains(t, string(got[0].Raw), "opening_hours")

	assert.Nil(t, got[1].Rating)
	assert.Nil(t, got[1].Geometry)
}

func TestNearbySearch_ZeroResults(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`, nil)

	got, err := NewClient(server.URL, "k", time.Second).NearbySearch(context.Background(), query())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNearbySearch_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperrors.ErrorCode
	}{
		{"denied", http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key", "results": []}`, apperrors.ErrCodeTransportFailure},
		{"server error", http.StatusInternalServerError, `oops`, apperrors.ErrCodeTransportFailure},
		{"not json", http.StatusOK, `<html>`, apperrors.ErrCodeParseFailure},
		{"result without name", http.StatusOK, `{"status": "OK", "results": [{"vicinity": "x"}]}`, apperrors.ErrCodeSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.status, tt.body, nil)
			_, err := NewClient(server.URL, "k", time.Second).NearbySearch(context.Background(), query())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
		})
	}
}

func TestNearbySearch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", 50*time.Millisecond).NearbySearch(context.Background(), query())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTransportFailure, apperrors.CodeOf(err))
}
