package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/0x0d01/simple-bank/pkg/tokenpkg"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/accounts/1234567", func(c *gin.Context) {
		c.Set(AuthPayloadKey, &tokenpkg.Payload{Username: "customer@example.com", Role: "USER"})
		c.Status(http.StatusOK)
	})

	request, err := http.NewRequest(http.MethodGet, "/accounts/1234567", nil)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	requestID := recorder.Header().Get("X-Request-ID")
	require.NotEmpty(t, requestID)

	var line struct {
		RequestID  string `json:"request_id"`
		Actor      string `json:"actor"`
		Role       string `json:"role"`
		Method     string `json:"method"`
		Path       string `json:"path"`
		StatusCode int    `json:"status_code"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, requestID, line.RequestID)
	require.Equal(t, "customer@example.com", line.Actor)
	require.Equal(t, "USER", line.Role)
	require.Equal(t, http.MethodGet, line.Method)
	require.Equal(t, "/accounts/1234567", line.Path)
	require.Equal(t, http.StatusOK, line.StatusCode)
}

func TestRequestLoggerKeepsClientRequestID(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	request.Header.Set("X-Request-ID", "req-42")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var line struct {
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "req-42", line.RequestID)
}
