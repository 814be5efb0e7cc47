package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     interface{}
		wantCode int
		contains string
	}{
		{"encodable", map[string]float64{"var_95": -0.03}, http.StatusOK, `"var_95":-0.03`},
		{"nan", map[string]float64{"volatility": math.NaN()}, http.StatusInternalServerError, "failed to encode response"},
		{"inf", map[string]float64{"sharpe": math.Inf(1)}, http.StatusInternalServerError, "failed to encode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondJSON(rec, http.StatusOK, tt.data)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}
