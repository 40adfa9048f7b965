package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lira-ai/lira/pkg/api/response"
	"github.com/lira-ai/lira/pkg/memory"
	"github.com/lira-ai/lira/pkg/turn"
)

type fakeTurnService struct {
	got  turn.Request
	resp *turn.Response
	err  error
}

func (f *fakeTurnService) Handle(_ context.Context, req turn.Request) (*turn.Response, error) {
	f.got = req
	return f.resp, f.err
}

func postGenerate(t *testing.T, h *GenerateHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/lira/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Generate(w, req)
	return w
}

func TestGenerateHandler_Success(t *testing.T) {
	svc := &fakeTurnService{resp: &turn.Response{
		Output:  "기억하고 있어요.",
		Emotion: turn.Summarize([]memory.Emotion{{Label: "기쁨", Score: 0.8}}),
	}}
	h := NewGenerateHandler(svc)

	w := postGenerate(t, h, `{"user_id":"u1","session_id":"s1","text":"안녕"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, turn.Request{UserID: "u1", SessionID: "s1", Text: "안녕"}, svc.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "기억하고 있어요.", body["output"])
	emotion := body["emotion"].(map[string]any)
	assert.Equal(t, "기쁨", emotion["emotion_1st_label"])
	assert.Equal(t, "central", emotion["emotion_mode"])
	assert.Contains(t, emotion, "emotion_2nd_label")
	assert.Nil(t, emotion["emotion_2nd_label"])
}

func TestGenerateHandler_BadInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "malformed json", body: `{"user_id":`, wantCode: response.ErrCodeBadRequest},
		{name: "missing text", body: `{"user_id":"u1","session_id":"s1"}`, wantCode: response.ErrCodeValidationFailed},
		{name: "empty object", body: `{}`, wantCode: response.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTurnService{}
			w := postGenerate(t, NewGenerateHandler(svc), tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Empty(t, svc.got.UserID, "service must not run")
		})
	}
}

func TestGenerateHandler_ValidationDetails(t *testing.T) {
	w := postGenerate(t, NewGenerateHandler(&fakeTurnService{}), `{"user_id":"u1"}`)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]interface{}{"session_id": "required", "text": "required"}, resp.Error.Details)
}

func TestGenerateHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid", turn.ErrInvalidRequest, http.StatusBadRequest, response.ErrCodeValidationFailed},
		{"generation", fmt.Errorf("%w: overloaded", turn.ErrGenerationFailed), http.StatusBadGateway, response.ErrCodeBadGateway},
		{"deadline", fmt.Errorf("%w: %w", turn.ErrGenerationFailed, context.DeadlineExceeded), http.StatusGatewayTimeout, response.ErrCodeGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postGenerate(t, NewGenerateHandler(&fakeTurnService{err: tt.err}),
				`{"user_id":"u1","session_id":"s1","text":"  "}`)

			require.Equal(t, tt.wantStatus, w.Code)
			var resp response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, "boom")
		})
	}
}
