package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-hedger/internal/api"
	"github.com/yourusername/arb-hedger/internal/provider"
	"github.com/yourusername/arb-hedger/internal/service"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestClientSendsActorAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/estimate", r.URL.Path)
		assert.Equal(t, "ops", r.Header.Get(api.ActorHeader))
		var f service.ScanFilter
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f))
		assert.Equal(t, []string{"us-nj"}, f.Jurisdictions)
		_ = json.NewEncoder(w).Encode(provider.Estimate{TotalCredits: 4})
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL, "ops", time.Second, quietLogger())
	var est provider.Estimate
	require.NoError(t, c.do(context.Background(), http.MethodPost, "/v1/estimate", service.ScanFilter{Jurisdictions: []string{"us-nj"}}, &est))
	assert.Equal(t, 4, est.TotalCredits)
}

func TestClientSurfacesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionRequired)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Message: "paid scan requires explicit confirmation", Code: 428})
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL, "ops", time.Second, quietLogger())
	err := c.do(context.Background(), http.MethodPost, "/v1/scan", service.ScanRequest{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explicit confirmation")
}

func TestClientDoesNotRetryPosts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL, "ops", time.Second, quietLogger())
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = time.Millisecond

	require.Error(t, c.do(context.Background(), http.MethodPost, "/v1/scan", service.ScanRequest{Confirm: true}, nil))
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	require.Error(t, c.do(context.Background(), http.MethodGet, "/v1/opportunities", nil, nil))
	assert.Equal(t, int32(3), calls.Load())
}
