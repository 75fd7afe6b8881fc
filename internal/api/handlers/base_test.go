package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlons-app/parlons/internal/apperrors"
	"github.com/parlons-app/parlons/internal/services"
	"github.com/parlons-app/parlons/internal/utils"
)

func newTestContext(t *testing.T, method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestHandleServiceErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "not found",
			err:        apperrors.NotFound("simulation not found"),
			wantStatus: 404,
		},
		{
			name:       "duplicate",
			err:        apperrors.Duplicate("speaker already exists"),
			wantStatus: 409,
		},
		{
			name:       "dependency constraint",
			err:        apperrors.ErrDependencyExists,
			wantStatus: 409,
		},
		{
			name:       "invalid input",
			err:        apperrors.InvalidInput("text cannot be empty"),
			wantStatus: 400,
		},
		{
			name:       "line not voiced",
			err:        apperrors.ErrNotVoiced,
			wantStatus: 422,
		},
		{
			name:       "synthesis failed",
			err:        apperrors.ErrSynthesisFailed,
			wantStatus: 502,
		},
		{
			name:       "audio processing",
			err:        apperrors.AudioProcessing("concat failed"),
			wantStatus: 500,
		},
		{
			name:       "database error",
			err:        apperrors.Database("connection lost"),
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t, "GET", "/api/v1/simulations/1")
			handleServiceError(c, tt.err, "simulation")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		})
	}
}

func TestHandleServiceErrorNotVoicedIncludesCode(t *testing.T) {
	c, w := newTestContext(t, "POST", "/api/v1/lines/7/recording/synthesize")
	handleServiceError(c, apperrors.ErrNotVoiced, "recording")

	var problem utils.ProblemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, 422, problem.Status)
	assert.Equal(t, "line-not-voiced", problem.Code)
	assert.NotEmpty(t, problem.Hint)
}

func TestRespondAssemblyResultSuccess(t *testing.T) {
	c, w := newTestContext(t, "POST", "/api/v1/dialogues/3/audio")
	respondAssemblyResult(c, "dialogues/complete/dialogue_3_greetings.mp3", nil, "dialogue audio")

	assert.Equal(t, 200, w.Code)

	var result assemblyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.AudioURL)
	assert.Equal(t, "/media/dialogues/complete/dialogue_3_greetings.mp3", *result.AudioURL)
	assert.Empty(t, result.Error)
}

func TestRespondAssemblyResultNoRecordings(t *testing.T) {
	// Nothing to assemble yet is an expected outcome, reported as an
	// unsuccessful result with HTTP 200 rather than an error status.
	c, w := newTestContext(t, "POST", "/api/v1/dialogues/3/audio")
	respondAssemblyResult(c, "", services.ErrNoRecordings, "dialogue audio")

	assert.Equal(t, 200, w.Code)

	var result assemblyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Nil(t, result.AudioURL)
	assert.NotEmpty(t, result.Error)
}

func TestRespondAssemblyResultNoDialogueAudio(t *testing.T) {
	c, w := newTestContext(t, "POST", "/api/v1/simulations/5/audio")
	respondAssemblyResult(c, "", services.ErrNoDialogueAudio, "simulation audio")

	assert.Equal(t, 200, w.Code)

	var result assemblyResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestRespondAssemblyResultUnexpectedError(t *testing.T) {
	c, w := newTestContext(t, "POST", "/api/v1/dialogues/3/audio")
	respondAssemblyResult(c, "", apperrors.AudioProcessing("ffmpeg exited with status 1"), "dialogue audio")

	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
