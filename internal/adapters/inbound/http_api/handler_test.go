package http_api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/fairodds/internal/core/session"
	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/state/store"
	"github.com/charleschow/fairodds/internal/events"
)

const startBody = `{"home":"Lions","away":"Tigers","odds":{"home":2.20,"draw":3.20,"away":3.20}}`

func newTestServer(t *testing.T, rps float64, burst int) *httptest.Server {
	t.Helper()
	svc := session.NewService(session.DefaultConfig(), store.New(), events.NewBus())
	t.Cleanup(svc.Shutdown)

	mux := http.NewServeMux()
	NewHandler(svc, rps, burst).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func startMatch(t *testing.T, srv *httptest.Server) session.View {
	t.Helper()
	status, body := do(t, http.MethodPost, srv.URL+"/matches", startBody)
	require.Equal(t, http.StatusCreated, status, string(body))
	var v session.View
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var eb errorBody
	require.NoError(t, json.Unmarshal(body, &eb))
	return eb.Code
}

func TestAPI_MatchFlow(t *testing.T) {
	srv := newTestServer(t, 0, 0)
	v := startMatch(t, srv)
	assert.Equal(t, "Lions", v.Home)
	assert.InDelta(t, 0.842, v.State.HomeEG, 0.001)

	status, body := do(t, http.MethodPost, srv.URL+"/matches/"+v.ID+"/events", `{"minute":5,"shots":2}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var rec match.LogRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.InDelta(t, 1.721, rec.TotalEG, 0.001)
	assert.True(t, rec.OddAvailable)

	status, body = do(t, http.MethodGet, srv.URL+"/matches/"+v.ID+"/projection?line=2.5", "")
	require.Equal(t, http.StatusOK, status)
	var proj projectionResponse
	require.NoError(t, json.Unmarshal(body, &proj))
	assert.Equal(t, rec.FairOdd, proj.FairOdd)
	assert.Greater(t, proj.UnderFairOdd, 1.0)

	status, body = do(t, http.MethodGet, srv.URL+"/matches/"+v.ID+"/value?live_odd=50", "")
	require.Equal(t, http.StatusOK, status)
	var ev session.Evaluation
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, "strong_value", string(ev.Verdict.Tier))

	status, body = do(t, http.MethodGet, srv.URL+"/matches", "")
	require.Equal(t, http.StatusOK, status)
	var list []session.Summary
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Submitted)

	status, body = do(t, http.MethodPost, srv.URL+"/matches/"+v.ID+"/restart", `{"odds":{"home":3,"draw":3,"away":3}}`)
	require.Equal(t, http.StatusOK, status, string(body))
	var restarted session.View
	require.NoError(t, json.Unmarshal(body, &restarted))
	assert.Empty(t, restarted.State.Log)
	assert.Equal(t, 1, restarted.Restarts)

	status, _ = do(t, http.MethodDelete, srv.URL+"/matches/"+v.ID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, body = do(t, http.MethodGet, srv.URL+"/matches/"+v.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorCode(t, body))
}

func TestAPI_ErrorMapping(t *testing.T) {
	srv := newTestServer(t, 0, 0)
	v := startMatch(t, srv)
	eventsURL := srv.URL + "/matches/" + v.ID + "/events"

	status, _ := do(t, http.MethodPost, eventsURL, `{"minute":10,"shots":1}`)
	require.Equal(t, http.StatusOK, status)

	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", http.MethodPost, eventsURL, `{"minute":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", http.MethodPost, eventsURL, `{"minute":11,"penalties":1}`, http.StatusBadRequest, "bad_request"},
		{"out of order", http.MethodPost, eventsURL, `{"minute":9,"shots":1}`, http.StatusConflict, "out_of_order_minute"},
		{"past match length", http.MethodPost, eventsURL, `{"minute":91,"shots":1}`, http.StatusConflict, "match_length_exceeded"},
		{"empty submission", http.MethodPost, eventsURL, `{"minute":11,"attacks":2}`, http.StatusUnprocessableEntity, "empty_submission"},
		{"negative counts", http.MethodPost, eventsURL, `{"minute":11,"shots":-2}`, http.StatusUnprocessableEntity, "invalid_event"},
		{"bad start odds", http.MethodPost, srv.URL + "/matches", `{"odds":{"home":1.0,"draw":3,"away":3}}`, http.StatusUnprocessableEntity, "invalid_odds"},
		{"unknown preset", http.MethodPost, srv.URL + "/matches", `{"preset":"turbo","odds":{"home":2,"draw":3,"away":3}}`, http.StatusUnprocessableEntity, "invalid_policy"},
		{"missing live odd", http.MethodGet, srv.URL + "/matches/" + v.ID + "/value", "", http.StatusBadRequest, "bad_request"},
		{"live odd at one", http.MethodGet, srv.URL + "/matches/" + v.ID + "/value?live_odd=1", "", http.StatusUnprocessableEntity, "invalid_odds"},
		{"bad line", http.MethodGet, srv.URL + "/matches/" + v.ID + "/projection?line=abc", "", http.StatusBadRequest, "bad_request"},
		{"nan line", http.MethodGet, srv.URL + "/matches/" + v.ID + "/projection?line=NaN", "", http.StatusBadRequest, "bad_request"},
		{"infinite line", http.MethodGet, srv.URL + "/matches/" + v.ID + "/projection?line=%2BInf", "", http.StatusBadRequest, "bad_request"},
		{"nan live odd", http.MethodGet, srv.URL + "/matches/" + v.ID + "/value?live_odd=NaN", "", http.StatusBadRequest, "bad_request"},
		{"infinite live odd", http.MethodGet, srv.URL + "/matches/" + v.ID + "/value?live_odd=Inf", "", http.StatusBadRequest, "bad_request"},
		{"negative line", http.MethodGet, srv.URL + "/matches/" + v.ID + "/projection?line=-1", "", http.StatusUnprocessableEntity, "invalid_line"},
		{"unknown match", http.MethodPost, srv.URL + "/matches/nope/events", `{"minute":11,"shots":1}`, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.wantStatus, status, string(body))
			assert.Equal(t, tt.wantCode, errorCode(t, body))
		})
	}

	status, body := do(t, http.MethodGet, srv.URL+"/matches/"+v.ID, "")
	require.Equal(t, http.StatusOK, status)
	var got session.View
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.State.Log, 1, "rejected submissions leave the log alone")
	assert.Equal(t, 10, got.State.Minute)
}

func TestAPI_GzipBody(t *testing.T) {
	srv := newTestServer(t, 0, 0)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(startBody))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/matches", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAPI_RateLimit(t *testing.T) {
	srv := newTestServer(t, 0.001, 2)

	for i := 0; i < 2; i++ {
		status, _ := do(t, http.MethodGet, srv.URL+"/matches", "")
		assert.Equal(t, http.StatusOK, status)
	}
	status, body := do(t, http.MethodGet, srv.URL+"/matches", "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", errorCode(t, body))

	status, _ = do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, status, "health is not rate limited")
}
