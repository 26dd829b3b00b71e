package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_Signed(t *testing.T) {
	got := make(chan *http.Request, 1)
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		got <- r
	}))
	defer srv.Close()

	ev := &Event{Type: EventBatchCompleted, JobID: "batch-1", Timestamp: 1700000000, Data: map[string]int{"total": 3}}
	require.NoError(t, Deliver(context.Background(), srv.URL, "s3cret", ev))

	r := <-got
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.Equal(t, "Pricecap-Webhook/1.0", r.Header.Get("User-Agent"))
	assert.True(t, verify("s3cret", body, r.Header.Get(SignatureHeader)))
	assert.False(t, verify("other", body, r.Header.Get(SignatureHeader)))

	var decoded Event
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "batch-1", decoded.JobID)
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted}))
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestDeliverWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	delays := []time.Duration{0, time.Millisecond, time.Millisecond}
	assert.True(t, deliverWithRetry(srv.URL, "", &Event{Type: EventBatchCompleted}, delays))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-10)
	assert.False(t, deliverWithRetry(srv.URL, "", &Event{Type: EventBatchCompleted}, delays))
}
