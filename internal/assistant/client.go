package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 2.0
	defaultBurst     = 4
	temperature      = 0.3
)

type Config struct {
	BaseURL   string
	Token     string
	Model     string
	Timeout   time.Duration
	RateLimit float64
}

// Client talks to a chat model through langchaingo. Every call waits on a
// shared rate limiter and is bounded by the configured timeout.
type Client struct {
	llm     llms.Model
	limiter *rate.Limiter
	timeout time.Duration
	logger  logger.ZapLogger
}

// NewOpenAI connects to an OpenAI compatible endpoint.
func NewOpenAI(cfg Config, log logger.ZapLogger) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("llm token required")
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	opts := []openai.Option{
		openai.WithToken(cfg.Token),
		openai.WithModel(modelName),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return NewClient(llm, cfg, log), nil
}

func NewClient(llm llms.Model, cfg Config, log logger.ZapLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	return &Client{
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(limit), defaultBurst),
		timeout: timeout,
		logger:  log,
	}
}

// CallJSON sends prompt and decodes the first JSON object of the answer into out.
func (c *Client) CallJSON(ctx context.Context, prompt string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return fmt.Errorf("llm call failed: %w", err)
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
		c.logger.Debug("llm answer is not json", zap.String("answer", text))
		return fmt.Errorf("failed to decode llm answer: %w", err)
	}
	return nil
}

// extractJSON strips markdown fences some models wrap around JSON.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		text = strings.TrimPrefix(text, "json")
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}
	return strings.TrimSpace(text)
}

type llmItem struct {
	Name       string           `json:"name"`
	Quantity   *decimal.Decimal `json:"quantity"`
	Unit       string           `json:"unit"`
	ExpiryDate string           `json:"expiry_date"`
	Reason     string           `json:"reason"`
}

const parsePrompt = "Parse the following text into an array of inventory items. Quantity is numeric; units like g/ml/pcs. " +
	"Try to detect expiry date (YYYY-MM-DD). " +
	`Output a JSON object only: {"items": [{"name": "", "quantity": 0, "unit": "", "expiry_date": ""}]}.` + "\n\n"

func (c *Client) ParseItems(ctx context.Context, text string) ([]ParsedItem, error) {
	var resp struct {
		Items []llmItem `json:"items"`
	}
	if err := c.CallJSON(ctx, parsePrompt+text, &resp); err != nil {
		return nil, err
	}

	items := make([]ParsedItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		p := ParsedItem{Name: name, Quantity: it.Quantity, Unit: strings.TrimSpace(it.Unit)}
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(it.ExpiryDate)); err == nil {
			p.ExpiryDate = &d
		}
		items = append(items, p)
	}
	return items, nil
}

func (c *Client) SuggestRestock(ctx context.Context, inventory []model.InventoryItem, horizonDays int) ([]Suggestion, error) {
	var resp struct {
		Suggestions []llmItem `json:"suggestions"`
	}
	if err := c.CallJSON(ctx, suggestPrompt(inventory, horizonDays), &resp); err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		out = append(out, Suggestion{Name: name, Quantity: s.Quantity, Unit: strings.TrimSpace(s.Unit), Reason: s.Reason})
	}
	return out, nil
}

func suggestPrompt(inventory []model.InventoryItem, horizonDays int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on current inventory, suggest a shopping list for the next %d day(s). ", horizonDays)
	b.WriteString("Each suggestion should include name, suggested quantity, unit and a one-line reason. ")
	b.WriteString("Avoid duplicates with existing inventory; prioritize staples/dairy/produce/seasonings and items that match current stock. ")
	b.WriteString(`Output a JSON object only: {"suggestions": [{"name": "", "quantity": 0, "unit": "", "reason": ""}]}.`)
	b.WriteString("\n\nCurrent inventory:\n")
	for _, it := range inventory {
		fmt.Fprintf(&b, "- %s %s%s", it.Name, it.Quantity.String(), it.Unit)
		if it.ExpiryDate != nil {
			fmt.Fprintf(&b, " exp %s", it.ExpiryDate.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
