package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	openrouterx "github.com/corvid-labs/atlas/pkg/openrouter"
)

// Config selects a model per agent role, falling back to the default
// model when no override is set.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.4"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	SalesModel           string  `envconfig:"SALES_MODEL" split_words:"true"`
	TalentModel          string  `envconfig:"TALENT_MODEL" split_words:"true"`
	AnalyticsModel       string  `envconfig:"ANALYTICS_MODEL" split_words:"true"`
	SalesTemperature     float32 `envconfig:"SALES_TEMPERATURE" split_words:"true" default:"-1"`
	TalentTemperature    float32 `envconfig:"TALENT_TEMPERATURE" split_words:"true" default:"-1"`
	AnalyticsTemperature float32 `envconfig:"ANALYTICS_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the provider config for one agent.
func (c Config) OpenRouterFor(id contractx.AgentID) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch id {
	case contractx.AgentSales:
		if v := strings.TrimSpace(c.SalesModel); v != "" {
			modelName = v
		}
		if c.SalesTemperature >= 0 {
			temp = c.SalesTemperature
		}
	case contractx.AgentTalent:
		if v := strings.TrimSpace(c.TalentModel); v != "" {
			modelName = v
		}
		if c.TalentTemperature >= 0 {
			temp = c.TalentTemperature
		}
	case contractx.AgentAnalytics:
		if v := strings.TrimSpace(c.AnalyticsModel); v != "" {
			modelName = v
		}
		if c.AnalyticsTemperature >= 0 {
			temp = c.AnalyticsTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
