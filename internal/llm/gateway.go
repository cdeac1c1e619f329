// internal/llm/gateway.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/javajoker/beycollection/internal/apperrors"
)

const (
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1"
	DefaultModel      = "google/gemini-2.5-flash"
)

type GatewayOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GatewayProvider speaks the OpenAI-compatible chat completions protocol.
type GatewayProvider struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
	tracer  trace.Tracer
}

func NewGatewayProvider(opts GatewayOptions, client *http.Client) (*GatewayProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("AI gateway API key is not configured")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGatewayURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}

	return &GatewayProvider{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		model:   opts.Model,
		timeout: opts.Timeout,
		client:  client,
		tracer:  otel.Tracer("beycollection/llm"),
	}, nil
}

func (p *GatewayProvider) GetName() string {
	return "gateway"
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *GatewayProvider) CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	ctx, span := p.tracer.Start(ctx, "llm.complete",
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Bool("llm.has_image", req.ImageURL != ""),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	if req.ImageURL != "" {
		messages = append(messages, chatMessage{Role: "user", Content: []contentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: req.ImageURL}},
		}})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	requestBody := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		requestBody["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		requestBody["temperature"] = req.Temperature
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		err = classifyTransport(err)
		recordError(span, err)
		return nil, err
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		err := statusError(httpResp.StatusCode, string(body))
		recordError(span, err)
		return nil, err
	}

	var response chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		err = apperrors.Malformed("ai.malformed", "Invalid response from AI", err)
		recordError(span, err)
		return nil, err
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		err := apperrors.Malformed("ai.empty", "No response from AI", nil)
		recordError(span, err)
		return nil, err
	}

	return &CompletionResponse{
		Text:         response.Choices[0].Message.Content,
		FinishReason: response.Choices[0].FinishReason,
		ModelName:    response.Model,
		PromptTokens: response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}, nil
}

func statusError(status int, body string) error {
	cause := fmt.Errorf("gateway status %d: %s", status, body)
	switch status {
	case http.StatusTooManyRequests:
		return apperrors.New(apperrors.TypeRateLimited, "ai.rate_limited", "Rate limit exceeded. Please try again later.", cause)
	case http.StatusPaymentRequired:
		return apperrors.New(apperrors.TypePaymentRequired, "ai.payment_required", "Payment required. Please add credits to continue.", cause)
	}
	logrus.WithField("status", status).Error("AI gateway error")
	return apperrors.Upstream("ai.gateway_error", "AI gateway error", cause)
}

func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if apperrors.IsDeadline(err) {
		return apperrors.Timeout("request.timeout", "Request timed out", err)
	}
	return apperrors.Upstream("ai.gateway_error", "AI gateway error", err)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
