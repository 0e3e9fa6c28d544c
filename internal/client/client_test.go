package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"redaid/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", timeout)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestTransitionStatus_SuppressesDuplicateWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	var calls int32

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		entered <- struct{}{}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"_id": "req-1", "status": "inprogress"})
	}, 5*time.Second)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := c.TransitionStatus(ctx, "req-1", types.RequestStatusInProgress)
		done <- err
	}()

	<-entered

	_, err := c.TransitionStatus(ctx, "req-1", types.RequestStatusInProgress)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	err = c.DeleteRequest(ctx, "req-1")
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// the id is free again once the first call returned
	_, err = c.TransitionStatus(ctx, "req-1", types.RequestStatusDone)
	assert.NoError(t, err)
}

func TestTransitionStatus_TimeoutIsNetworkError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{})
	}, 20*time.Millisecond)

	_, err := c.TransitionStatus(context.Background(), "req-1", types.RequestStatusInProgress)
	assert.True(t, types.IsNetwork(err))

	// a timed out call does not keep the id locked
	_, err = c.acquire("req-1")
	assert.NoError(t, err)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		check  func(t *testing.T, err error)
	}{
		{
			name:   "conflict",
			status: http.StatusConflict,
			body:   map[string]any{"error": "this request can no longer be updated", "from": "done", "to": "canceled"},
			check: func(t *testing.T, err error) {
				var transition *types.InvalidTransitionError
				require.ErrorAs(t, err, &transition)
				assert.Equal(t, types.RequestStatusDone, transition.From)
				assert.Equal(t, types.RequestStatusCanceled, transition.To)
			},
		},
		{
			name:   "own request",
			status: http.StatusForbidden,
			body:   map[string]any{"error": "not allowed", "reason": "own_request"},
			check: func(t *testing.T, err error) {
				var authz *types.AuthorizationError
				require.ErrorAs(t, err, &authz)
				assert.Equal(t, types.ReasonOwnRequest, authz.Reason)
			},
		},
		{
			name:   "unauthenticated",
			status: http.StatusUnauthorized,
			body:   map[string]any{"error": "access denied", "reason": "unauthenticated"},
			check: func(t *testing.T, err error) {
				var authz *types.AuthorizationError
				require.ErrorAs(t, err, &authz)
				assert.Equal(t, types.ReasonUnauthenticated, authz.Reason)
			},
		},
		{
			name:   "validation",
			status: http.StatusUnprocessableEntity,
			body:   map[string]any{"error": "validation failed", "fields": map[string]string{"status": "unknown"}},
			check: func(t *testing.T, err error) {
				var validation *types.ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, "unknown", validation.Fields["status"])
			},
		},
		{
			name:   "gone",
			status: http.StatusNotFound,
			body:   map[string]any{"error": "donation request req-9 not found"},
			check: func(t *testing.T, err error) {
				var nf *types.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "req-9", nf.ID)
			},
		},
		{
			name:   "upstream",
			status: http.StatusBadGateway,
			body:   map[string]any{"error": "upstream service unavailable, please retry"},
			check: func(t *testing.T, err error) {
				assert.True(t, types.IsNetwork(err))
			},
		},
		{
			name:   "unexpected",
			status: http.StatusInternalServerError,
			body:   map[string]any{"error": "something went wrong"},
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.False(t, types.IsNetwork(err))
				assert.False(t, types.IsAuthorization(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPatch, r.Method)
				assert.Equal(t, "/donation-requests/status/req-9", r.URL.Path)
				writeJSON(w, tt.status, tt.body)
			}, time.Second)

			_, err := c.TransitionStatus(context.Background(), "req-9", types.RequestStatusCanceled)
			tt.check(t, err)
		})
	}
}

func TestDonationRequests_EncodesFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, []map[string]any{{"_id": "req-1", "status": "pending"}})
	}, time.Second)

	list, err := c.DonationRequests(context.Background(), &types.DonationRequestFilter{Status: "pending", Page: 2})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "req-1", list[0].ID)
}
