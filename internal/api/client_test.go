package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdfence/simulator/internal/model/core"
)

func TestHealthcheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthcheck", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	assert.NoError(t, c.Healthcheck())
}

func TestHealthcheckFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	assert.Error(t, c.Healthcheck())
}

func TestPostAlert(t *testing.T) {
	var got core.Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/alerts", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	alert := core.Alert{
		Time:     time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		AnimalID: 5,
		Pos:      core.Point{X: 12, Y: 34},
		Kind:     core.AlertLeft,
		Message:  "Animal #5 LEFT fence at (12,34)",
	}

	c := New(srv.URL, "secret")
	require.NoError(t, c.PostAlert(alert))
	assert.Equal(t, alert.Message, got.Message)
	assert.Equal(t, uint(5), got.AnimalID)
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "session.json")
	require.NoError(t, os.WriteFile(filePath, []byte(`{"animals":[]}`), 0644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions/add", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "secret", r.FormValue("secret"))
		assert.Equal(t, "evening run", r.FormValue("sessionName"))
		assert.Equal(t, "8", r.FormValue("animalCount"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	err := c.Upload(filePath, UploadMetadata{
		SessionName: "evening run",
		DurationSec: 60,
		AnimalCount: 8,
		AlertCount:  3,
	})
	require.NoError(t, err)
}

func TestNotifierDelivers(t *testing.T) {
	var mu sync.Mutex
	var received []core.Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var a core.Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&a))
		mu.Lock()
		received = append(received, a)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(New(srv.URL, "secret"), zerolog.Nop(), 16)
	assert.True(t, n.Send(core.Alert{AnimalID: 1, Kind: core.AlertLeft}))
	assert.True(t, n.Send(core.Alert{AnimalID: 2, Kind: core.AlertReentered}))
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, uint(1), received[0].AnimalID)
	assert.Equal(t, uint(2), received[1].AnimalID)
}
