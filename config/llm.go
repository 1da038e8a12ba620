package config

import (
	"errors"
	"strings"
	"time"

	"github.com/feichai0017/smart-sdlc/internal/agent/llm"
)

const (
	ProviderGroq   = "groq"
	ProviderVertex = "vertex"
)

// LLMConfig holds the completion backend settings. With the default groq
// provider APIKey has no default and must come from the environment or the
// config file.
type LLMConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"apiKey"`
	URL      string        `yaml:"url"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
	Vertex   VertexConfig  `yaml:"vertex"`
}

type VertexConfig struct {
	Project  string `yaml:"project"`
	Location string `yaml:"location"`
	Model    string `yaml:"model"`
}

func defaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: ProviderGroq,
		URL:      llm.DefaultURL,
		Model:    llm.DefaultModel,
		Timeout:  llm.DefaultTimeout,
		Vertex: VertexConfig{
			Location: "us-central1",
			Model:    llm.DefaultVertexModel,
		},
	}
}

func (c LLMConfig) validate() error {
	if c.Timeout <= 0 {
		return errors.New("llm timeout must be positive, got " + c.Timeout.String())
	}
	switch c.Provider {
	case ProviderGroq:
		if strings.TrimSpace(c.APIKey) == "" {
			return ErrMissingAPIKey
		}
	case ProviderVertex:
		if c.Vertex.Project == "" || c.Vertex.Location == "" {
			return errors.New("VERTEX_PROJECT and VERTEX_LOCATION must be set")
		}
	default:
		return errors.New("unsupported llm provider: " + c.Provider)
	}
	return nil
}

// ClientConfig converts to the llm package's Config.
func (c LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		APIKey:  c.APIKey,
		URL:     c.URL,
		Model:   c.Model,
		Timeout: c.Timeout,
	}
}

// VertexClientConfig converts to the llm package's VertexConfig.
func (c LLMConfig) VertexClientConfig() llm.VertexConfig {
	return llm.VertexConfig{
		Project:  c.Vertex.Project,
		Location: c.Vertex.Location,
		Model:    c.Vertex.Model,
		Timeout:  c.Timeout,
	}
}

func applyLLMEnv(c *LLMConfig) {
	envString(&c.Provider, "LLM_PROVIDER")
	envString(&c.APIKey, "GROQ_API_KEY")
	envString(&c.URL, "GROQ_API_URL")
	envString(&c.Model, "GROQ_MODEL")
	envDuration(&c.Timeout, "GROQ_TIMEOUT")
	envString(&c.Vertex.Project, "VERTEX_PROJECT")
	envString(&c.Vertex.Location, "VERTEX_LOCATION")
	envString(&c.Vertex.Model, "VERTEX_MODEL")
}
