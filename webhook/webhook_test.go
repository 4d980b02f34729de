package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_SignsPayload(t *testing.T) {
	const secret = "s3cret"
	var gotBody []byte
	var gotSig, gotEvent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		gotSig = r.Header.Get("X-Sectify-Signature")
		gotEvent = r.Header.Get("X-Sectify-Event")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	event := &Event{Type: "batch.completed", JobID: "batch-abc", Timestamp: 1700000000}
	err := NewNotifier(secret).Notify(context.Background(), srv.URL, event)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, gotSig)
	assert.Equal(t, "batch.completed", gotEvent)

	var decoded Event
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "batch.completed", decoded.Type)
	assert.Equal(t, "batch-abc", decoded.JobID)
}

func TestNotify_NoSecretNoSignature(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Sectify-Signature")
	}))
	defer srv.Close()

	err := NewNotifier("").Notify(context.Background(), srv.URL, &Event{Type: "batch.completed"})
	require.NoError(t, err)
	assert.Empty(t, gotSig)
}

func TestNotify_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewNotifier("").Notify(context.Background(), srv.URL, &Event{Type: "batch.completed"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotify_UnreachableEndpoint(t *testing.T) {
	err := NewNotifier("").Notify(context.Background(), "http://127.0.0.1:1/hook", &Event{Type: "batch.completed"})
	assert.Error(t, err)
}
