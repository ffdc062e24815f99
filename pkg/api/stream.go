package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StreamChat opens the streaming chat exchange and returns the response
// body for the caller to drain chunk by chunk. The body is never buffered
// here: first-byte-to-first-token latency matters, so decoding starts as
// soon as bytes arrive. Cancelling ctx aborts the underlying request.
func (c *Client) StreamChat(ctx context.Context, streamReq ChatStreamRequest) (io.ReadCloser, error) {
	streamReq.Stream = true

	encoded, err := json.Marshal(streamReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/stream", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}
