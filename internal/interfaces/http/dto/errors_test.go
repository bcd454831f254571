package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{"unauthorized", ErrCodeUnauthorized, http.StatusUnauthorized},
		{"bad request", ErrCodeBadRequest, http.StatusBadRequest},
		{"invalid json", ErrCodeInvalidJSON, http.StatusBadRequest},
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"upstream failed", ErrCodeUpstreamFailed, http.StatusBadGateway},
		{"upstream unavailable", ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{"not configured", ErrCodeNotConfigured, http.StatusServiceUnavailable},
		{"rate limited", ErrCodeRateLimited, http.StatusTooManyRequests},
		{"internal", ErrCodeInternal, http.StatusInternalServerError},
		{"unknown code falls back to 500", "ERR_NO_SUCH_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeBadRequest, "bad payload")
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "bad payload", resp.Error.Message)
	assert.Nil(t, resp.Data)
}

func TestNewSuccessResponse(t *testing.T) {
	resp := NewSuccessResponse(map[string]int{"n": 1})
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
}
