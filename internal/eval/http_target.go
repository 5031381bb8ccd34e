package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTarget drives an agent served over HTTP. The agent process owns
// model access; this side only sends prompts and reads back behavior.
type HTTPTarget struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTarget creates a new HTTP target
func NewHTTPTarget(baseURL string, timeout time.Duration) *HTTPTarget {
	return &HTTPTarget{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// InvokeRequest is the payload sent to the agent's /invoke endpoint
type InvokeRequest struct {
	Prompt    string       `json:"prompt"`
	AgentType string       `json:"agent_type"`
	MaxSteps  int          `json:"max_steps,omitempty"`
	Prompts   PromptConfig `json:"prompts,omitempty"`
}

// InvokeResponse is the agent's account of one run. For code agents
// Code carries the generated source so tool usage can also be read
// from call sites.
type InvokeResponse struct {
	Response          string   `json:"response"`
	ToolsUsed         []string `json:"tools_used,omitempty"`
	FinalAnswerCalled bool     `json:"final_answer_called"`
	Steps             int      `json:"steps"`
	Code              string   `json:"code,omitempty"`
	Success           bool     `json:"success"`
	Error             string   `json:"error,omitempty"`
}

// Invoke sends one prompt to the target and returns the agent's account
func (ht *HTTPTarget) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ht.baseURL+"/invoke", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := ht.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var invokeResp InvokeResponse
	if err := json.Unmarshal(body, &invokeResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &invokeResp, nil
}

// Health checks if the target is healthy
func (ht *HTTPTarget) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ht.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := ht.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
