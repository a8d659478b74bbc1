// Package push provides a simple client for sending push notifications
// through an HTTP push gateway.
package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client represents a push gateway client used to send notifications.
type Client struct {
	gatewayURL string
	apiKey     string
	client     *http.Client
}

// NewClient creates a new push Client for the given gateway.
func NewClient(gatewayURL, apiKey string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		client:     &http.Client{},
	}
}

// sendMessageRequest represents the payload for the gateway's send endpoint.
type sendMessageRequest struct {
	UserID   string `json:"user_id"`  // recipient whose devices receive the push
	Template string `json:"template"` // template to render on the gateway side
	Data     string `json:"data"`     // serialized template variables
}

// Send sends a push notification through the gateway.
func (c *Client) Send(to, template, payload string) error {
	reqBody := sendMessageRequest{
		UserID:   to,
		Template: template,
		Data:     payload,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.gatewayURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push gateway error: %s", resp.Status)
	}

	return nil
}
