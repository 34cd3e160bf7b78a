package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/charge0315/yt-orchestrator/internal/model"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAISuggester asks a chat-completion model for channels and artists
// similar to the user's current subscriptions.
type OpenAISuggester struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewOpenAISuggester(apiKey, model string) *OpenAISuggester {
	return &OpenAISuggester{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Suggest prompts the model with the subscription titles and parses the JSON
// array it returns. Errors bubble up; the aggregator owns degradation.
func (s *OpenAISuggester) Suggest(ctx context.Context, subscribed []model.ChannelSummary, limit int) ([]model.Recommendation, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("openai: no API key configured")
	}

	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(subscribed, limit)},
		},
		Temperature: 0.7,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	recs, err := parseRecommendations(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("count", len(recs)).Msg("openai suggestions parsed")
	return recs, nil
}

const systemPrompt = "You recommend YouTube channels and YouTube Music artists. " +
	"Respond with only a JSON array of objects with keys " +
	`"channelIdOrVideoId", "title", "reason". No prose, no code fences.`

func buildPrompt(subscribed []model.ChannelSummary, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The user subscribes to the following %d channels:\n", len(subscribed))
	for _, ch := range subscribed {
		kind := "channel"
		if ch.IsArtist {
			kind = "artist"
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", ch.Title, kind)
	}
	fmt.Fprintf(&sb, "Suggest up to %d similar channels or artists they do not already follow.", limit)
	return sb.String()
}

// parseRecommendations extracts the JSON array from the model output, which
// sometimes arrives wrapped in code fences or prose despite the prompt.
func parseRecommendations(content string) ([]model.Recommendation, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("openai: no JSON array in response")
	}

	var recs []model.Recommendation
	if err := json.Unmarshal([]byte(content[start:end+1]), &recs); err != nil {
		return nil, fmt.Errorf("openai: malformed suggestion array: %w", err)
	}
	return recs, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
