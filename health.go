package exnest

import (
	"context"
	"time"
)

const (
	healthProbeModel  = "openai:gpt-3.5-turbo"
	healthProbePrompt = "Hello"
)

// HealthStatus is the result of a HealthCheck probe.
type HealthStatus struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp"`
	Config    ConfigView `json:"config"`
}

// TestConnection issues a minimal one-token chat to verify the gateway is
// reachable and the credential is accepted. The outcome is reported in the
// Response; the error follows the usual Execute contract.
func (c *Client) TestConnection(ctx context.Context) (*Response, error) {
	maxTokens := 5
	return c.Chat(ctx, healthProbeModel, []Message{{Role: RoleUser, Content: healthProbePrompt}}, &ChatOptions{
		MaxTokens: &maxTokens,
	})
}

// HealthCheck runs TestConnection and summarizes the outcome together with
// the redacted configuration.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	status := "healthy"
	resp, err := c.TestConnection(ctx)
	if err != nil || resp == nil || !resp.Success {
		status = "unhealthy"
	}
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Config:    c.ConfigView(),
	}
}
