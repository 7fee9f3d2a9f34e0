package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parislaw/stepchase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImage = "data:image/jpeg;base64,c3RlcHM="

func TestValidatePhotoDataURI(t *testing.T) {
	tests := []struct {
		name  string
		uri   string
		valid bool
	}{
		{"png data uri", "data:image/png;base64,iVBORw0KGgo=", true},
		{"jpeg data uri", testImage, true},
		{"empty string", "", false},
		{"raw base64", "iVBORw0KGgo=", false},
		{"plain url", "https://example.com/steps.png", false},
		{"missing encoding", "data:image/png,iVBORw0KGgo=", false},
		{"missing media type", "data:;base64,iVBORw0KGgo=", false},
		{"missing body", "data:image/png;base64,", false},
		{"prefix only", "data:", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhotoDataURI(tt.uri)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidImage)
			}
		})
	}
}

func chatCompletion(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	})
	return string(body)
}

func glmClient(url string) *Client {
	return NewClient(&config.Config{
		GLMAPIKey:      "test-key",
		GLMAPIURL:      url,
		GLMVisionModel: "glm-4v",
		AITimeout:      5 * time.Second,
	})
}

func TestVerifyStepCount(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model
		fmt.Fprint(w, chatCompletion(`{"stepCount": 12543, "fraudProbability": 0.12}`))
	}))
	defer srv.Close()

	result, err := glmClient(srv.URL).VerifyStepCount(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, 12543, result.StepCount)
	assert.InDelta(t, 0.12, result.FraudProbability, 1e-9)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "glm-4v", gotModel)
}

func TestVerifyStepCount_NormalizesOutOfRangeValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion(`{"stepCount": -50, "fraudProbability": 1.8}`))
	}))
	defer srv.Close()

	result, err := glmClient(srv.URL).VerifyStepCount(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, 0, result.StepCount)
	assert.Equal(t, 1.0, result.FraudProbability)
}

func TestDetectManipulation_FencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion("```json\n{\"isManipulated\": true, \"confidence\": 0.91, \"explanation\": \"inconsistent fonts\"}\n```"))
	}))
	defer srv.Close()

	result, err := glmClient(srv.URL).DetectManipulation(context.Background(), testImage)
	require.NoError(t, err)
	assert.True(t, result.IsManipulated)
	assert.InDelta(t, 0.91, result.Confidence, 1e-9)
	assert.Equal(t, "inconsistent fonts", result.Explanation)
}

func TestAnalyze_FallsBackToSecondProvider(t *testing.T) {
	var primaryCalls int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&primaryCalls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion(`{"stepCount": 8200, "fraudProbability": 0.05}`))
	}))
	defer fallback.Close()

	client := NewClient(&config.Config{
		GLMAPIKey:      "glm-key",
		GLMAPIURL:      primary.URL,
		GLMVisionModel: "glm-4v",
		DeepSeekAPIKey: "ds-key",
		DeepSeekAPIURL: fallback.URL,
		DeepSeekModel:  "deepseek-vl",
		AITimeout:      5 * time.Second,
	})

	result, err := client.VerifyStepCount(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, 8200, result.StepCount)
	assert.Equal(t, int32(1), atomic.LoadInt32(&primaryCalls))
}

func TestAnalyze_AllProvidersFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := glmClient(srv.URL).VerifyStepCount(context.Background(), testImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glm")
	assert.Contains(t, err.Error(), "status 502")
}

func TestAnalyze_NoProviders(t *testing.T) {
	client := NewClient(&config.Config{})
	_, err := client.VerifyStepCount(context.Background(), testImage)
	assert.EqualError(t, err, "no AI provider configured")
}

func TestAnalyze_RejectsInvalidImageWithoutCalling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for an invalid image")
	}))
	defer srv.Close()

	_, err := glmClient(srv.URL).VerifyStepCount(context.Background(), "not-an-image")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestParseModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    StepVerification
		wantErr bool
	}{
		{
			name:    "bare object",
			content: `{"stepCount": 100, "fraudProbability": 0.5}`,
			want:    StepVerification{StepCount: 100, FraudProbability: 0.5},
		},
		{
			name:    "json fence",
			content: "```json\n{\"stepCount\": 100, \"fraudProbability\": 0.5}\n```",
			want:    StepVerification{StepCount: 100, FraudProbability: 0.5},
		},
		{
			name:    "anonymous fence",
			content: "```\n{\"stepCount\": 100, \"fraudProbability\": 0.5}\n```",
			want:    StepVerification{StepCount: 100, FraudProbability: 0.5},
		},
		{
			name:    "prose around the object",
			content: `Here is what I found: {"stepCount": 100, "fraudProbability": 0.5} Hope that helps.`,
			want:    StepVerification{StepCount: 100, FraudProbability: 0.5},
		},
		{
			name:    "no json at all",
			content: "I could not read the image.",
			wantErr: true,
		},
		{
			name:    "malformed object",
			content: `{"stepCount": oops}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StepVerification
			err := parseModelJSON(tt.content, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
