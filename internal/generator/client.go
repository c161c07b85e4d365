package generator

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/groundschool/backend/internal/models"
)

// LLMClient is the interface all generator implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Generator wraps an LLMClient and adds document-based batch methods.
type Generator struct {
	llm   LLMClient
	model string
}

func NewGenerator() *Generator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath)
		model = "claude-cli"
		log.Println("Generator using Claude CLI (local plan)")
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("Generator using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-opus-4-5-20251101"
		}
		llm = NewAPIClient(model)
		log.Println("Generator using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// GenerateBatch produces count questions grounded in the document's extracted
// text.
func (g *Generator) GenerateBatch(ctx context.Context, doc *models.Document, count int) (*GeneratedBatch, *LLMResponse, error) {
	systemPrompt := SystemPrompt()
	userPrompt := BuildUserPrompt(doc, count)

	resp, err := g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("generate batch: %w", err)
	}

	batch, err := ParseResponse(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse response: %w", err)
	}

	return batch, resp, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   8192,
		Temperature: param.NewOpt(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	mockJSON := buildMockJSON()
	return &LLMResponse{
		Content:      mockJSON,
		PromptTokens: 1500,
		OutputTokens: 2000,
	}, nil
}

func buildMockJSON() string {
	correctAnswers := []string{"A", "B", "C", "D"}
	difficulties := []string{"easy", "medium", "medium", "hard"}
	topics := []string{
		"airspace classification", "weight and balance", "METAR interpretation",
		"right-of-way rules", "density altitude", "magnetic compass errors",
	}

	questions := "["
	for i := 0; i < 6; i++ {
		correctID := correctAnswers[i%4]
		topic := topics[i%len(topics)]
		difficulty := difficulties[i%len(difficulties)]

		if i > 0 {
			questions += ","
		}

		choices := "["
		for j, id := range correctAnswers {
			label := "an incorrect but plausible option"
			if id == correctID {
				label = "the correct procedure"
			}
			if j > 0 {
				choices += ","
			}
			choices += fmt.Sprintf(`{"id":"%s","text":"[Mock] Choice %s describing %s regarding %s."}`,
				id, id, label, topic)
		}
		choices += "]"

		questions += fmt.Sprintf(`{"question":"[Mock] According to the study material, which of the following is required when operating under conditions involving %s?","choices":%s,"correct_answer_id":"%s","explanation":"[Mock] The correct answer is %s because the material states the applicable rule for %s. The most tempting wrong answer confuses it with an adjacent regulation.","difficulty":"%s"}`,
			topic, choices, correctID, correctID, topic, difficulty)
	}
	questions += "]"

	return fmt.Sprintf(`{"questions":%s}`, questions)
}
