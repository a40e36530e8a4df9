//go:build integration

package openai

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}
	return NewClientWithConfig(Config{
		APIKey:    os.Getenv("OPENAI_API_KEY"),
		Model:     os.Getenv("OPENAI_MODEL"),
		MaxTokens: 120,
	})
}

func TestIntegration_GenerateTourismAnswer(t *testing.T) {
	client := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := client.Generate(ctx, "Responda em uma frase, em português: em que estado brasileiro fica Bonito?")
	require.NoError(t, err)
	assert.Contains(t, text, "Mato Grosso do Sul")
}

func TestIntegration_GenerateHonorsDeadline(t *testing.T) {
	client := liveClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	_, err := client.Generate(ctx, "Quais são os passeios em Bonito?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
