package extract

import (
	"context"

	"github.com/boardwatch/filings-cli/pkg/anthropic"
)

// scriptedClient returns canned responses in order, recording each request.
type scriptedClient struct {
	responses []scriptedResponse
	requests  []anthropic.MessageRequest
}

type scriptedResponse struct {
	text string
	err  error
}

func (c *scriptedClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		panic("scriptedClient: no responses left")
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: next.text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}
