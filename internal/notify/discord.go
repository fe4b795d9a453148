package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const discordRed = 15158332

// DiscordTransport posts alerts to a Discord webhook.
type DiscordTransport struct {
	webhookURL string
	hostname   string
	client     *http.Client
}

func NewDiscordTransport(webhookURL, hostname string) (*DiscordTransport, error) {
	if webhookURL == "" {
		return nil, errors.New("discord webhook url is required")
	}
	return &DiscordTransport{
		webhookURL: webhookURL,
		hostname:   hostname,
		client:     &http.Client{},
	}, nil
}

type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (d *DiscordTransport) Name() string { return "discord" }

func (d *DiscordTransport) Send(ctx context.Context, subject, body string) error {
	embed := DiscordEmbed{
		Title:       subject,
		Description: body,
		Color:       discordRed,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if d.hostname != "" {
		embed.Fields = []DiscordField{{Name: "Host", Value: d.hostname, Inline: true}}
	}

	jsonData, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("failed to marshal Discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}
