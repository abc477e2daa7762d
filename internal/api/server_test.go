package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/logx"
	"github.com/dagflow/dagflow/internal/persist"
)

func TestHandleRootReturnsWelcomeMessage(t *testing.T) {
	s := NewServer(t.TempDir(), logx.NewNoOpLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["message"], "dagflow")
}

func TestHandleRegisterPersistsSnapshot(t *testing.T) {
	dagsDir := t.TempDir()
	s := NewServer(dagsDir, logx.NewNoOpLogger())

	snap := &persist.Snapshot{Nodes: []string{"seed"}, Activities: map[string][]persist.ActivitySnapshot{
		"seed": {{ID: "a1", Name: "seed", TaskName: "seed"}},
	}}
	dagBytes, err := persist.Encode(snap)
	require.NoError(t, err)

	payload, err := json.Marshal(RegistrationRequest{
		Name:         "nightly",
		Trigger:      "interval",
		Minutes:      5,
		MaxInstances: 1,
		Executor:     "default",
		Jobstore:     "default",
		DAG:          dagBytes,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	persisted, err := os.ReadFile(filepath.Join(dagsDir, "nightly"))
	require.NoError(t, err)
	require.Equal(t, dagBytes, persisted)
}

func TestHandleRegisterRejectsMissingFields(t *testing.T) {
	s := NewServer(t.TempDir(), logx.NewNoOpLogger())
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegisterRejectsInvalidDAGPayload(t *testing.T) {
	s := NewServer(t.TempDir(), logx.NewNoOpLogger())
	payload, err := json.Marshal(RegistrationRequest{
		Name:         "nightly",
		Trigger:      "interval",
		Minutes:      5,
		MaxInstances: 1,
		Executor:     "default",
		Jobstore:     "default",
		DAG:          []byte("not a valid gob snapshot"),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
