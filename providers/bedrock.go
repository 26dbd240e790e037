package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// BedrockProvider implements the Provider interface for AWS Bedrock,
// supporting Anthropic Claude and Amazon Titan text models via the
// InvokeModel API. It is the non-OpenAI collaborator option for
// deployments that keep traffic inside AWS.
type BedrockProvider struct {
	Base
	client *bedrockruntime.Client
	region string
}

// NewBedrock creates a new AWS Bedrock provider. Credentials come from the
// default AWS config chain. region defaults to us-east-1.
func NewBedrock(region string) (*BedrockProvider, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockProvider{
		Base:   Base{name: "bedrock"},
		client: bedrockruntime.NewFromConfig(cfg),
		region: region,
	}, nil
}

// SupportedModels returns well-known Bedrock text model IDs.
func (p *BedrockProvider) SupportedModels() []string {
	return []string{
		"anthropic.claude-3-5-sonnet-20241022-v2:0",
		"anthropic.claude-3-5-haiku-20241022-v1:0",
		"amazon.titan-text-express-v1",
		"amazon.titan-text-lite-v1",
	}
}

// SupportsModel returns true for the model families Complete can encode.
func (p *BedrockProvider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "anthropic.") || strings.HasPrefix(model, "amazon.titan")
}

// Models returns structured model metadata.
func (p *BedrockProvider) Models() []ModelInfo {
	return ModelsFromList(p.name, p.SupportedModels())
}

type bedrockClaudeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	System           string    `json:"system,omitempty"`
}

type bedrockClaudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type bedrockTitanRequest struct {
	InputText            string `json:"inputText"`
	TextGenerationConfig struct {
		MaxTokenCount int     `json:"maxTokenCount,omitempty"`
		Temperature   float64 `json:"temperature,omitempty"`
	} `json:"textGenerationConfig"`
}

type bedrockTitanResponse struct {
	InputTextTokenCount int `json:"inputTextTokenCount"`
	Results             []struct {
		TokenCount int    `json:"tokenCount"`
		OutputText string `json:"outputText"`
	} `json:"results"`
}

// Complete sends a request to AWS Bedrock and returns the response.
func (p *BedrockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	switch {
	case strings.HasPrefix(req.Model, "anthropic."):
		return p.completeClaude(ctx, req)
	case strings.HasPrefix(req.Model, "amazon.titan"):
		return p.completeTitan(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported Bedrock model: %s", req.Model)
	}
}

func (p *BedrockProvider) completeClaude(ctx context.Context, req Request) (*Response, error) {
	maxTokens := 1024
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	// Claude takes the system turn out of band.
	var system string
	var messages []Message
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system = msg.Content
		} else {
			messages = append(messages, msg)
		}
	}

	body, err := json.Marshal(bedrockClaudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Messages:         messages,
		Temperature:      req.Temperature,
		System:           system,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := p.invoke(ctx, req.Model, body)
	if err != nil {
		return nil, err
	}

	var out bedrockClaudeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var text strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return &Response{
		Model:    req.Model,
		Provider: p.name,
		Content:  text.String(),
		Usage: Usage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		},
	}, nil
}

func (p *BedrockProvider) completeTitan(ctx context.Context, req Request) (*Response, error) {
	// Titan has no message structure; flatten the turns into one prompt.
	var prompt strings.Builder
	for _, msg := range req.Messages {
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}

	titanReq := bedrockTitanRequest{InputText: prompt.String()}
	if req.MaxTokens != nil {
		titanReq.TextGenerationConfig.MaxTokenCount = *req.MaxTokens
	}
	if req.Temperature != nil {
		titanReq.TextGenerationConfig.Temperature = *req.Temperature
	}

	body, err := json.Marshal(titanReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := p.invoke(ctx, req.Model, body)
	if err != nil {
		return nil, err
	}

	var out bedrockTitanResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("empty response from Bedrock model %s", req.Model)
	}

	return &Response{
		Model:    req.Model,
		Provider: p.name,
		Content:  out.Results[0].OutputText,
		Usage: Usage{
			PromptTokens:     out.InputTextTokenCount,
			CompletionTokens: out.Results[0].TokenCount,
			TotalTokens:      out.InputTextTokenCount + out.Results[0].TokenCount,
		},
	}, nil
}

func (p *BedrockProvider) invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, err
	}
	return output.Body, nil
}
