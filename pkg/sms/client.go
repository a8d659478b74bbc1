// Package sms provides a simple client for sending notifications through
// an HTTP SMS gateway.
package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client represents an SMS gateway client used to send notifications.
type Client struct {
	gatewayURL string
	apiKey     string
	sender     string
	client     *http.Client
}

// NewClient creates a new SMS Client for the given gateway.
func NewClient(gatewayURL, apiKey, sender string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		sender:     sender,
		client:     &http.Client{},
	}
}

// sendMessageRequest represents the payload for the gateway's send endpoint.
type sendMessageRequest struct {
	To       string `json:"to"`       // recipient phone number or user reference
	From     string `json:"from"`     // registered sender name
	Template string `json:"template"` // template to render on the gateway side
	Data     string `json:"data"`     // serialized template variables
}

// Send sends an SMS notification through the gateway.
func (c *Client) Send(to, template, payload string) error {
	reqBody := sendMessageRequest{
		To:       to,
		From:     c.sender,
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
		return fmt.Errorf("sms gateway error: %s", resp.Status)
	}

	return nil
}
