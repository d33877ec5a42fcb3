package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("hotel: %w", ErrForbidden), http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("range: %w", ErrValidation), http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{fmt.Errorf("metrics: %w", ErrUpstream), http.StatusBadGateway},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, tc.status, problem.Status)
		if tc.status == http.StatusInternalServerError {
			assert.Empty(t, problem.Detail)
		}
	}
}

func TestProblemWithCarriesData(t *testing.T) {
	rec := httptest.NewRecorder()
	ProblemWith(rec, http.StatusBadGateway, "Bad Gateway", "metrics down", map[string]int{"generation": 3})

	var body struct {
		Title string         `json:"title"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bad Gateway", body.Title)
	assert.Equal(t, 3, body.Data["generation"])
}
