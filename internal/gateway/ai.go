package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"threatconsole/internal/models"
)

const analyzeTimeRangeDays = 7

func getAI[T any](ctx context.Context, c *Conn, method, endpoint, path string, body interface{}) (T, error) {
	var env envelope[T]
	if err := c.g.ai.do(ctx, c.holder, method, endpoint, path, body, &env); err != nil {
		var zero T
		return zero, err
	}
	if err := env.check(endpoint); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// Status reads the AI engine status, degrading to /mock-status.
func (c *Conn) Status(ctx context.Context) (Result[models.AIStatus], error) {
	return cachedFetch(c.g.cache, "status", c.scope, c.token(), func() (Result[models.AIStatus], error) {
		return DataSource[models.AIStatus]{
			Name: "status",
			Primary: func(ctx context.Context) (models.AIStatus, error) {
				return getAI[models.AIStatus](ctx, c, http.MethodGet, "status", "/status", nil)
			},
			Fallback: func(ctx context.Context) (models.AIStatus, error) {
				return getAI[models.AIStatus](ctx, c, http.MethodGet, "mock-status", "/mock-status", nil)
			},
			Log: c.g.log,
		}.Fetch(ctx)
	})
}

// Insights reads the AI risk insights, degrading to /mock-insights.
func (c *Conn) Insights(ctx context.Context) (Result[models.AIInsights], error) {
	return cachedFetch(c.g.cache, "insights", c.scope, c.token(), func() (Result[models.AIInsights], error) {
		return DataSource[models.AIInsights]{
			Name: "insights",
			Primary: func(ctx context.Context) (models.AIInsights, error) {
				return getAI[models.AIInsights](ctx, c, http.MethodGet, "insights", "/insights", nil)
			},
			Fallback: func(ctx context.Context) (models.AIInsights, error) {
				return getAI[models.AIInsights](ctx, c, http.MethodGet, "mock-insights", "/mock-insights", nil)
			},
			Log: c.g.log,
		}.Fetch(ctx)
	})
}

// TriggerWeekly starts the weekly analysis run and drops cached AI reads.
func (c *Conn) TriggerWeekly(ctx context.Context) (string, error) {
	var env envelope[json.RawMessage]
	if err := c.g.ai.do(ctx, c.holder, http.MethodPost, "trigger-weekly", "/trigger-weekly", nil, &env); err != nil {
		return "", err
	}
	if err := env.check("trigger-weekly"); err != nil {
		return "", err
	}
	c.g.InvalidateAI()
	return env.Message, nil
}

func (c *Conn) AnalyzeUser(ctx context.Context, userID string) (models.UserAnalysis, error) {
	if userID == "" {
		return models.UserAnalysis{}, Validation("Please select a user to analyze")
	}
	body := map[string]int{"timeRange": analyzeTimeRangeDays}
	return getAI[models.UserAnalysis](ctx, c, http.MethodPost, "analyze-user", escaped("/analyze-user/", userID), body)
}
