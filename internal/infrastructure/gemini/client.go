package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-pro")
	model.SetTemperature(0.7)

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Close() {
	c.client.Close()
}

// GenerateMatchBlurb writes a short celebratory line for a fresh love match.
// Falls back to a canned line when the API is unreachable so enrichment never
// blocks on upstream availability.
func (c *GeminiClient) GenerateMatchBlurb(ctx context.Context, reason1, reason2 string) (string, error) {
	prompt := fmt.Sprintf(`
		Two people just matched on a dating app.
		Why side A was suggested to side B: %q
		Why side B was suggested to side A: %q

		Task: Write one short, warm sentence (max 25 words) celebrating the match.
		Do not mention scores or algorithms.
		Output: just the sentence.
	`, reason1, reason2)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fallbackBlurb, nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return fallbackBlurb, nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return fallbackBlurb, nil
	}
	return out, nil
}

const fallbackBlurb = "You two clicked for a reason — say hi and find out why."

func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, reason1, reason2 string) ([]string, error) {
	prompt := fmt.Sprintf(`
		Generate 3 creative icebreaker messages for a dating app match.
		Why side A was suggested to side B: %q
		Why side B was suggested to side A: %q

		Task: Create 3 distinct opening lines either person could send.
		Keep each under 20 words, friendly, no emoji.
		Output: JSON array of strings. Example: ["Hi...", "Hello..."]
	`, reason1, reason2)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	responseText := strings.TrimSpace(sb.String())
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")

	var icebreakers []string
	if err := json.Unmarshal([]byte(responseText), &icebreakers); err != nil {
		// Model sometimes answers in plain lines instead of JSON.
		for _, line := range strings.Split(responseText, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "[") && !strings.HasSuffix(line, "]") {
				icebreakers = append(icebreakers, line)
			}
		}
		if len(icebreakers) == 0 {
			return nil, fmt.Errorf("failed to parse icebreakers: %w", err)
		}
	}
	return icebreakers, nil
}
