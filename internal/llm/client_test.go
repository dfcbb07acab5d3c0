package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/scenecomposer/internal/prompt"
	"github.com/ivlev/scenecomposer/internal/scene"
	"github.com/ivlev/scenecomposer/internal/script"
)

const sceneArgs = `{
  "layout": "CenterLayout",
  "background": {"type": "solid", "color": "#0EA0E4"},
  "elements": [
    {"component": "LottieElement", "props": {"src": "animations/element/Coins drop.json"},
     "position": {"x": 960, "y": 540}, "enterAt": 0,
     "animation": {"enter": {"type": "scale_in", "durationInFrames": 12}}}
  ],
  "transition": {"type": "zoom_in", "durationInFrames": 12},
  "cameraMotion": {"type": "zoom_focus", "endScale": 1.1}
}`

type toolCall struct {
	name, args string
}

func completion(calls ...toolCall) map[string]any {
	var toolCalls []map[string]any
	for i, c := range calls {
		toolCalls = append(toolCalls, map[string]any{
			"id":   "call_" + string(rune('a'+i)),
			"type": "function",
			"function": map[string]any{
				"name":      c.name,
				"arguments": c.args,
			},
		})
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index": 0,
			"message": map[string]any{
				"role":       "assistant",
				"content":    "",
				"tool_calls": toolCalls,
			},
			"finish_reason": "tool_calls",
		}},
		"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	}
}

func newServer(t *testing.T, handler func(t *testing.T, req map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		status, body := handler(t, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testContext() prompt.Context {
	return prompt.Context{
		Section: script.Section{
			Type:      script.Chart,
			Narration: "30년간 복리와 단리의 차이를 그래프로 확인해보겠습니다.",
			Duration:  8,
		},
		PrevTransition: "color_wipe",
		SceneIndex:     2,
		TotalScenes:    6,
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestComposeScene(t *testing.T) {
	srv := newServer(t, func(t *testing.T, req map[string]any) (int, any) {
		assert.Equal(t, "test-model", req["model"])

		messages, _ := req["messages"].([]any)
		if assert.Len(t, messages, 2) {
			user, _ := messages[1].(map[string]any)
			assert.Contains(t, user["content"], "Compose scene 3/6.")
		}

		choice, _ := req["tool_choice"].(map[string]any)
		fn, _ := choice["function"].(map[string]any)
		assert.Equal(t, ToolName, fn["name"])

		tools, _ := req["tools"].([]any)
		assert.Len(t, tools, 1)

		return http.StatusOK, completion(toolCall{ToolName, sceneArgs})
	})

	c, err := New("test-key", WithBaseURL(srv.URL+"/v1"), WithModel("test-model"), WithTimeout(5*time.Second))
	require.NoError(t, err)

	composed, err := c.ComposeScene(context.Background(), testContext())
	require.NoError(t, err)
	require.NoError(t, composed.Validate())

	assert.Equal(t, scene.CenterLayout, composed.Layout)
	require.Len(t, composed.Elements, 1)
	assert.Equal(t, "animations/element/Coins drop.json", composed.Elements[0].Src())
	assert.Equal(t, "zoom_in", composed.TransitionType())
	require.NotNil(t, composed.CameraMotion)
	assert.Equal(t, 1.1, composed.CameraMotion.EndScale)
}

func TestComposeSceneErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"no tool call", http.StatusOK, completion(), ErrNoToolCall},
		{"other tool", http.StatusOK, completion(toolCall{"draw_chart", "{}"}), ErrNoToolCall},
		{"malformed arguments", http.StatusOK, completion(toolCall{ToolName, `{"layout": 42`}), ErrMalformedScene},
		{"server error", http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "overloaded", "type": "server_error"},
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(t *testing.T, _ map[string]any) (int, any) {
				return tt.status, tt.body
			})

			c, err := New("test-key", WithBaseURL(srv.URL+"/v1"))
			require.NoError(t, err)

			composed, err := c.ComposeScene(context.Background(), testContext())
			require.Error(t, err)
			assert.Nil(t, composed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestComposeSceneRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(t *testing.T, _ map[string]any) (int, any) {
		calls.Add(1)
		return http.StatusOK, completion(toolCall{ToolName, sceneArgs})
	})

	c, err := New("test-key", WithBaseURL(srv.URL+"/v1"), WithRateLimit(1.0/3600, 1))
	require.NoError(t, err)

	_, err = c.ComposeScene(context.Background(), testContext())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ComposeScene(ctx, testContext())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSceneSchema(t *testing.T) {
	data, err := json.Marshal(composeSceneTool())
	require.NoError(t, err)

	var tool map[string]any
	require.NoError(t, json.Unmarshal(data, &tool))
	assert.Equal(t, "function", tool["type"])

	fn := tool["function"].(map[string]any)
	assert.Equal(t, ToolName, fn["name"])

	params := fn["parameters"].(map[string]any)
	assert.ElementsMatch(t, []any{"layout", "background", "elements"}, params["required"])

	props := params["properties"].(map[string]any)
	for _, key := range []string{"layout", "layoutProps", "background", "elements", "transition", "cameraMotion"} {
		assert.Contains(t, props, key)
	}
}
