package openai

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockChatAPI is a mock for the OpenAI chat API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateCompletion(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestClient_Generate_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	prompt := "Você é Guatá. PERGUNTA: onde comer em Campo Grande?"

	mockAPI.On("CreateCompletion", ctx, prompt).Return("Experimente o sobá na Feira Central!", nil)

	text, err := client.Generate(ctx, prompt)

	assert.NoError(t, err)
	assert.Equal(t, "Experimente o sobá na Feira Central!", text)
	mockAPI.AssertExpectations(t)
}

func TestClient_Generate_EmptyPrompt(t *testing.T) {
	client := NewClientWithConfig(Config{})

	text, err := client.Generate(context.Background(), "  ")

	assert.Error(t, err)
	assert.Empty(t, text)
	assert.Equal(t, ErrEmptyPrompt, err)
}

func TestClient_Generate_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateCompletion", ctx, "prompt").Return("", apiErr)

	text, err := client.Generate(ctx, "prompt")

	assert.Error(t, err)
	assert.Empty(t, text)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "failed to create completion")
	mockAPI.AssertExpectations(t)
}

func TestClient_Generate_BlankCompletion(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateCompletion", ctx, "prompt").Return("\n  ", nil)

	_, err := client.Generate(ctx, "prompt")

	assert.Equal(t, ErrEmptyCompletion, err)
	mockAPI.AssertExpectations(t)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "test-api-key", Temperature: -1})

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)

	adapter, ok := client.api.(*OpenAIAdapter)
	assert.True(t, ok)
	assert.Equal(t, DefaultChatModel, adapter.model)
	assert.Equal(t, float32(DefaultTemperature), adapter.temperature)
}

func TestNewClientWithConfig(t *testing.T) {
	client := NewClientWithConfig(Config{APIKey: "k", Model: "gpt-4o", Temperature: 0.2, MaxTokens: 100})

	adapter := client.api.(*OpenAIAdapter)
	assert.Equal(t, "gpt-4o", adapter.model)
	assert.Equal(t, float32(0.2), adapter.temperature)
	assert.Equal(t, 100, adapter.maxTokens)
}

func TestNewClientWithConfig_Temperature(t *testing.T) {
	tests := []struct {
		name        string
		temperature float32
		want        float32
		wantRequest float32
	}{
		{"zero is kept", 0, 0, math.SmallestNonzeroFloat32},
		{"negative uses default", -0.5, DefaultTemperature, DefaultTemperature},
		{"explicit value", 0.3, 0.3, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewOpenAIAdapter("k", Config{Temperature: tt.temperature})
			assert.Equal(t, tt.want, adapter.temperature)
			assert.Equal(t, tt.wantRequest, requestTemperature(adapter.temperature))
		})
	}
}
