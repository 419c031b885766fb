package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dushixiang/augur/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"google.golang.org/genai"
)

// LLM 提供方
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderCustom = "custom"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// OpenAIGenerator 基于 Chat Completions 的文本生成，兼容 openai/azure/custom
type OpenAIGenerator struct {
	provider    string
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func newLLMHTTPClient(conf config.LlmConf) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if conf.ProxyURL != "" {
		proxyURL, err := url.Parse(conf.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid llm proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Transport: transport, Timeout: conf.TimeoutDuration()}, nil
}

// NewOpenAIGenerator 创建 OpenAI 兼容的文本生成器
func NewOpenAIGenerator(conf config.LlmConf) (*OpenAIGenerator, error) {
	httpClient, err := newLLMHTTPClient(conf)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	switch conf.Provider {
	case ProviderAzure:
		opts = append(opts,
			azure.WithEndpoint(conf.BaseURL, conf.APIVersion),
			azure.WithAPIKey(conf.APIKey),
		)
	default:
		opts = append(opts,
			option.WithBaseURL(conf.BaseURL),
			option.WithAPIKey(conf.APIKey),
		)
	}

	return &OpenAIGenerator{
		provider:    conf.Provider,
		client:      openai.NewClient(opts...),
		model:       conf.Model,
		temperature: conf.Temperature,
		maxTokens:   conf.MaxTokens,
	}, nil
}

func (g *OpenAIGenerator) Name() string {
	return g.provider
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (*Generation, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.temperature),
		MaxTokens:   openai.Int(int64(g.maxTokens)),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	choice := resp.Choices[0]
	return &Generation{
		Content:          choice.Message.Content,
		Model:            resp.Model,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

// GeminiGenerator 基于 Gemini API 的文本生成
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiGenerator 创建 Gemini 文本生成器
func NewGeminiGenerator(ctx context.Context, conf config.LlmConf) (*GeminiGenerator, error) {
	httpClient, err := newLLMHTTPClient(conf)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     conf.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:      client,
		model:       conf.Model,
		temperature: conf.Temperature,
		maxTokens:   conf.MaxTokens,
	}, nil
}

func (g *GeminiGenerator) Name() string {
	return ProviderGemini
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (*Generation, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.temperature)),
		MaxOutputTokens: int32(g.maxTokens),
	})
	if err != nil {
		return nil, err
	}

	gen := &Generation{
		Content: resp.Text(),
		Model:   g.model,
	}
	if len(resp.Candidates) > 0 {
		gen.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		gen.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		gen.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		gen.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return gen, nil
}

// NewGenerator 按配置选择文本生成器，provider 为 none 或缺少密钥时返回 nil
func NewGenerator(ctx context.Context, conf config.LlmConf) (Generator, error) {
	if conf.Provider == ProviderNone || conf.APIKey == "" {
		return nil, nil
	}
	switch conf.Provider {
	case ProviderGemini:
		g, err := NewGeminiGenerator(ctx, conf)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI, ProviderAzure, ProviderCustom:
		g, err := NewOpenAIGenerator(conf)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", conf.Provider)
	}
}
