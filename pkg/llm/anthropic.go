package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lira-ai/lira/pkg/memory"
)

const (
	DefaultModel       = "claude-sonnet-4-5"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.1
	DefaultAttempts    = 2
)

// messageCreator is the slice of the SDK used here. *anthropic.MessageService
// satisfies it.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type llmLogger interface {
	WarnContext(ctx context.Context, msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) WarnContext(context.Context, string, ...any) {}

// Options configures the Anthropic adapters.
type Options struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	// Attempts is how many times a reply is requested before falling back.
	Attempts int
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Temperature < 0 {
		o.Temperature = DefaultTemperature
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	return o
}

// Anthropic generates replies with the Messages API.
type Anthropic struct {
	messages messageCreator
	opts     Options
	logger   llmLogger
}

// NewAnthropic creates a reply generator. An empty APIKey defers to the
// ANTHROPIC_API_KEY environment variable read by the SDK.
func NewAnthropic(opts Options, logger llmLogger) *Anthropic {
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return newAnthropic(&client.Messages, opts, logger)
}

func newAnthropic(messages messageCreator, opts Options, logger llmLogger) *Anthropic {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Anthropic{messages: messages, opts: opts.withDefaults(), logger: logger}
}

// Generate implements the reply generator. After the configured attempts it
// returns FallbackReply rather than an error, so a turn always answers.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	prompt := BuildPrompt(req)
	var lastErr error
	for attempt := 1; attempt <= a.opts.Attempts; attempt++ {
		text, err := a.complete(ctx, SystemPrompt, prompt, a.opts.MaxTokens)
		if err == nil {
			return PostProcess(text), nil
		}
		lastErr = err
		a.logger.WarnContext(ctx, "reply generation failed", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	a.logger.WarnContext(ctx, "using fallback reply", "error", lastErr)
	return FallbackReply, nil
}

func (a *Anthropic) complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Temperature: anthropic.Float(a.opts.Temperature),
	}

	resp, err := a.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: claude API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyReply
	}
	return text.String(), nil
}

const classifierPrompt = `Classify the emotions of the user's message with the GoEmotions label set
(admiration, amusement, anger, annoyance, approval, caring, confusion, curiosity, desire,
disappointment, disapproval, disgust, embarrassment, excitement, fear, gratitude, grief, joy,
love, nervousness, optimism, pride, realization, relief, remorse, sadness, surprise, neutral).
Score every relevant label independently between 0 and 1.
Answer with a JSON array only, for example [{"label":"joy","score":0.82}].`

// EmotionClassifier scores emotions with the Messages API. It satisfies
// emotion.Classifier.
type EmotionClassifier struct {
	model *Anthropic
}

// NewEmotionClassifier creates a classifier sharing the reply options.
func NewEmotionClassifier(opts Options, logger llmLogger) *EmotionClassifier {
	opts.Temperature = 0
	return &EmotionClassifier{model: NewAnthropic(opts, logger)}
}

// Classify implements emotion.Classifier.
func (c *EmotionClassifier) Classify(ctx context.Context, text string) ([]memory.Emotion, error) {
	out, err := c.model.complete(ctx, classifierPrompt, text, 256)
	if err != nil {
		return nil, err
	}
	return parseEmotions(out)
}

// parseEmotions reads the first JSON array in a model reply.
func parseEmotions(reply string) ([]memory.Emotion, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("llm: no emotion array in reply")
	}
	var raw []memory.Emotion
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("llm: decode emotions: %w", err)
	}
	out := raw[:0]
	for _, e := range raw {
		if e.Label == "" {
			continue
		}
		if e.Score < 0 {
			e.Score = 0
		}
		if e.Score > 1 {
			e.Score = 1
		}
		out = append(out, e)
	}
	return out, nil
}
