package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, h gin.HandlerFunc) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
	h(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestSuccess(t *testing.T) {
	code, body := call(t, func(c *gin.Context) { Success(c, gin.H{"a": 1}) })
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, http.StatusOK, body.Code)
	assert.Equal(t, map[string]interface{}{"a": float64(1)}, body.Data)
}

func TestFailures(t *testing.T) {
	cases := []struct {
		name   string
		h      gin.HandlerFunc
		status int
		msg    string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "userId required") }, http.StatusBadRequest, "userId required"},
		{"not found", func(c *gin.Context) { NotFound(c, "post not found") }, http.StatusNotFound, "post not found"},
		{"rate limited", TooManyRequests, http.StatusTooManyRequests, "too many requests"},
		{"internal", func(c *gin.Context) { InternalError(c, errors.New("db closed")) }, http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := call(t, tc.h)
			assert.Equal(t, tc.status, code)
			assert.Equal(t, tc.status, body.Code)
			assert.Equal(t, tc.msg, body.Message)
			assert.Nil(t, body.Data)
		})
	}
}
