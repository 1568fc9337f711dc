package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
)

func newRunHandler(db core.DB, signer ArtifactSigner) *Run {
	return NewRun(core.NewServices(db), signer)
}

// stubSigner returns a canned URL for every artifact.
type stubSigner struct {
	url  string
	keys []string
}

func (s *stubSigner) SignArtifact(_ context.Context, ownerID, runID, filename string) (string, error) {
	s.keys = append(s.keys, ownerID+"/"+runID+"/"+filename)
	return s.url, nil
}

// --- RunNow ---

func TestRunNow_EmptyID(t *testing.T) {
	h := newRunHandler(nil, nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs//run", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", "")

	h.RunNow(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunNow_UnknownCronJob(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "SELECT EXISTS")
	}), mock.Anything).Return(&handlerMockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*bool) = false
		return nil
	}})

	h := newRunHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs/"+validID+"/run", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.RunNow(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunNow_DuplicatePendingRun(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "SELECT EXISTS")
	}), mock.Anything).Return(&handlerMockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*bool) = true
		return nil
	}})
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO cronjob_runs")
	}), mock.Anything).Return(&handlerMockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}})

	h := newRunHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs/"+validID+"/run", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.RunNow(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "pending or running")
}

func TestRunNow_Accepted(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "SELECT EXISTS")
	}), mock.Anything).Return(&handlerMockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*bool) = true
		return nil
	}})
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO cronjob_runs")
	}), mock.Anything).Return(&handlerMockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = "run-1"
		return nil
	}})

	h := newRunHandler(db, nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs/"+validID+"/run", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.RunNow(rec, r)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var run model.CronJobRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusPending, run.Status)
}

// --- Artifacts ---

func runRow(artifacts string) *handlerMockRow {
	return &handlerMockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = "run-1"
		*dest[1].(*string) = validID
		*dest[2].(*string) = model.RunStatusSuccess
		*dest[3].(*time.Time) = time.Now()
		if artifacts != "" {
			*dest[7].(*json.RawMessage) = json.RawMessage(artifacts)
		}
		return nil
	}}
}

func TestRunArtifacts_SignsEachFile(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(runRow(`{"files":[{"name":"output.log","kind":"logs"},{"name":"changes.diff","kind":"diff"}]}`))

	signer := &stubSigner{url: "https://s3.example.com/signed"}
	h := newRunHandler(db, signer)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodGet, "/runs/run-1/artifacts", nil), testOwnerID)
	r = withChiURLParam(r, "runID", "run-1")

	h.Artifacts(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []artifactLink `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "output.log", body.Items[0].Name)
	assert.Equal(t, "https://s3.example.com/signed", body.Items[0].URL)
	assert.True(t, body.Items[0].ExpiresAt.After(time.Now().Add(59*time.Minute)))
	assert.Equal(t, []string{testOwnerID + "/run-1/output.log", testOwnerID + "/run-1/changes.diff"}, signer.keys)
}

func TestRunArtifacts_NoArtifacts(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(runRow(""))

	h := newRunHandler(db, &stubSigner{url: "unused"})
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodGet, "/runs/run-1/artifacts", nil), testOwnerID)
	r = withChiURLParam(r, "runID", "run-1")

	h.Artifacts(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []artifactLink `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Items)
}
