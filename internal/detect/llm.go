package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"travel-assistant/internal/logging"
)

const llmTimeout = 10 * time.Second

// PromptSpec is the YAML prompt file driving the LLM detector.
type PromptSpec struct {
	System    string   `yaml:"system"`
	Locations []string `yaml:"locations"`
	Style     struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

type llmReply struct {
	Region string `json:"region"`
}

// LLMDetector asks a chat-completion model for the destination.
type LLMDetector struct {
	prompt PromptSpec
	client *openai.Client
	model  string
	logger *zap.Logger
}

// LoadLLMDetector reads the prompt at path.
func LoadLLMDetector(path string, client *openai.Client, model string, logger *zap.Logger) (*LLMDetector, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read destination prompt: %w", err)
	}
	var prompt PromptSpec
	if err := yaml.Unmarshal(b, &prompt); err != nil {
		return nil, fmt.Errorf("parse destination prompt %s: %w", path, err)
	}
	return NewLLMDetector(prompt, client, model, logger), nil
}

func NewLLMDetector(prompt PromptSpec, client *openai.Client, model string, logger *zap.Logger) *LLMDetector {
	return &LLMDetector{prompt: prompt, client: client, model: model, logger: logging.OrNop(logger)}
}

// DetectDestination skips the model when the message names a known location
// outright. A model reply counts only if it matches a known location.
func (d *LLMDetector) DetectDestination(ctx context.Context, message string) (string, bool) {
	if strings.TrimSpace(message) == "" {
		return "", false
	}
	if loc, ok := MatchKnown(message, d.prompt.Locations); ok {
		return loc, true
	}
	reply, err := d.ask(ctx, message)
	if err != nil {
		d.logger.Warn("llm destination detection failed", zap.Error(err))
		return "", false
	}
	loc, ok := canonical(reply, d.prompt.Locations)
	if !ok {
		d.logger.Debug("llm reply is not a known location", zap.String("reply", reply))
	}
	return loc, ok
}

func (d *LLMDetector) ask(ctx context.Context, message string) (string, error) {
	temp := d.prompt.Style.Temperature
	if temp <= 0 {
		temp = 0.1
	}
	maxTok := d.prompt.Style.MaxTokens
	if maxTok <= 0 {
		maxTok = 50
	}

	var b strings.Builder
	b.WriteString(d.prompt.System)
	if len(d.prompt.Locations) > 0 {
		b.WriteString("\n\nKnown locations:\n")
		b.WriteString(strings.Join(d.prompt.Locations, ", "))
	}
	b.WriteString("\n\nOutput ONLY a JSON object like {\"region\": \"<location or empty>\"}.")

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.model,
		Temperature: temp,
		MaxTokens:   maxTok,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.String()},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return regionFromReply(resp.Choices[0].Message.Content), nil
}

// regionFromReply reads {"region": ...} from the reply, tolerating text
// around the object. A reply without a JSON object is taken verbatim.
func regionFromReply(raw string) string {
	var out llmReply
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out.Region
	}
	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first >= 0 && last > first {
		if err := json.Unmarshal([]byte(raw[first:last+1]), &out); err == nil {
			return out.Region
		}
		return ""
	}
	return strings.Trim(strings.TrimSpace(raw), `"'.。`)
}
