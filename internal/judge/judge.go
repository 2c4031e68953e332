// Package judge dispatches code to a Judge0-compatible execution backend.
// Each call is one synchronous round trip; the backend is asked to wait for
// completion instead of being polled. Retrying is the caller's business.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mulakhat/interview/internal/apperr"
	"mulakhat/interview/internal/metrics"
)

type ExecRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type ExecResult struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Status        Status `json:"status"`
	Time          string `json:"time,omitempty"`
	Memory        int    `json:"memory,omitempty"`
}

// Executor is what the grading engine depends on.
type Executor interface {
	Execute(ctx context.Context, req ExecRequest) (*ExecResult, error)
}

type Client struct {
	backend Backend
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewClient(backend Backend, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		backend: backend,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

func (c *Client) Backend() Backend { return c.backend }

func (c *Client) Execute(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	if req.SourceCode == "" || req.LanguageID == 0 {
		return nil, apperr.Validation("missing source_code or language_id")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "encode submission", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.backend.URL + "/submissions?base64_encoded=false&wait=true"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "build judge request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.backend.Kind == HostedWithKey {
		httpReq.Header.Set("X-RapidAPI-Key", c.backend.APIKey)
		httpReq.Header.Set("X-RapidAPI-Host", hostedHost)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.JudgeCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.JudgeCalls.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.KindUpstream, "judge call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.JudgeCalls.WithLabelValues("error").Inc()
		c.log.Warn("judge returned non-success status", zap.Int("status", resp.StatusCode))
		return nil, apperr.Newf(apperr.KindUpstream, "judge returned status %d", resp.StatusCode)
	}

	var result ExecResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.JudgeCalls.WithLabelValues("error").Inc()
		return nil, apperr.Wrap(apperr.KindUpstream, "decode judge response", err)
	}
	metrics.JudgeCalls.WithLabelValues("ok").Inc()
	return &result, nil
}

var _ Executor = (*Client)(nil)

func (k BackendKind) String() string {
	switch k {
	case SelfHosted:
		return "self-hosted"
	case HostedWithKey:
		return "hosted-with-key"
	default:
		return "public-free"
	}
}

func (b Backend) String() string {
	return fmt.Sprintf("%s (%s)", b.URL, b.Kind)
}
