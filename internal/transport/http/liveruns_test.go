package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postLiveRun(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/live-runs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.StartLiveRun(c))
	return rec
}

func TestStartLiveRunValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postLiveRun(t, h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postLiveRun(t, h, `{"requirement":"q","max_rounds":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartLiveRunPolicyDenial(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postLiveRun(t, h, `{"requirement":"q","max_rounds":50}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postLiveRun(t, h, `{"requirement":"q","config_path":"/etc/shadow"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStartLiveRunBackendFailure(t *testing.T) {
	h, be := newTestHandler(t)
	be.startErr = errors.New("connection refused")

	rec := postLiveRun(t, h, `{"requirement":"q","max_rounds":3}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	be.startErr = nil
	be.subErr = errors.New("ws refused")
	rec = postLiveRun(t, h, `{"requirement":"q","max_rounds":3}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStartLiveRunSuccess(t *testing.T) {
	h, be := newTestHandler(t)

	rec := postLiveRun(t, h, `{"requirement":"sort a list","max_rounds":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run_1")

	require.NotNil(t, be.lastReq)
	assert.Equal(t, "sort a list", be.lastReq.Requirement)
	assert.Equal(t, 3, be.lastReq.MaxRounds)

	// The run is now tracked and queryable.
	ctrl := h.manager.Get("run_1")
	require.NotNil(t, ctrl)
	assert.Equal(t, "run_1", ctrl.View().Snapshot.RunID)
}

func TestStartLiveRunRateLimited(t *testing.T) {
	h, _ := newTestHandler(t)
	h.limiter = newRateLimiter(2)

	for i := 0; i < 2; i++ {
		// Policy rejects these, but they still count as attempts.
		rec := postLiveRun(t, h, `{"requirement":"q","max_rounds":50}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
	}
	rec := postLiveRun(t, h, `{"requirement":"q","max_rounds":50}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetLiveRun(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/live-runs/nope", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("run_id")
	c.SetParamValues("nope")

	require.NoError(t, h.GetLiveRun(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postLiveRun(t, h, `{"requirement":"q","max_rounds":3}`)

	req = httptest.NewRequest(http.MethodGet, "/api/live-runs/run_1", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("run_id")
	c.SetParamValues("run_1")

	require.NoError(t, h.GetLiveRun(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run_1"`)
}
