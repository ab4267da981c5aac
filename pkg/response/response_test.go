package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, gin.H{"streak": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, map[string]interface{}{"streak": float64(1)}, resp.Data)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	ErrorWithReason(c, CodeInvalidState, "ALREADY_CLAIMED_TODAY", "daily reward already claimed")
	resp = decode(t, w)
	assert.Equal(t, CodeInvalidState, resp.Code)
	assert.Equal(t, "ALREADY_CLAIMED_TODAY", resp.Reason)
	assert.Nil(t, resp.Data)
}

func TestAbortStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false
	r.GET("/x", func(c *gin.Context) { Abort(c, CodeUnauthorized, "no caller") }, func(c *gin.Context) { reached = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.False(t, reached)
	assert.Equal(t, CodeUnauthorized, decode(t, w).Code)
}
