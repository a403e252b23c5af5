package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"waystone/internal/economy"
)

// Client talks to the waystone admin API.
type Client struct {
	BaseURL    string
	AdminToken string
	HTTP       *http.Client
}

func NewClient(baseURL, adminToken string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminToken: adminToken,
		HTTP: &http.Client{
			Timeout: 5 * time.Minute, // manual resets can run long on big guilds
		},
	}
}

type GuildStatus struct {
	Guild     economy.Guild `json:"guild"`
	NextReset *time.Time    `json:"next_reset,omitempty"`
}

func (c *Client) GuildStatus(ctx context.Context, guildID int64) (GuildStatus, error) {
	var out GuildStatus
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/guilds/%d", guildID), nil, &out)
	return out, err
}

func (c *Client) TriggerReset(ctx context.Context, guildID int64) (economy.ResetReport, error) {
	var out economy.ResetReport
	err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/guilds/%d/reset", guildID), nil, &out)
	return out, err
}

func (c *Client) ListStipends(ctx context.Context, guildID int64) ([]economy.StipendRule, error) {
	var out struct {
		Stipends []economy.StipendRule `json:"stipends"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/v1/guilds/%d/stipends", guildID), nil, &out)
	return out.Stipends, err
}

// CharacterLedger returns a character's most recent ledger entries.
func (c *Client) CharacterLedger(ctx context.Context, characterID int64, limit int) ([]economy.LedgerEntry, error) {
	path := fmt.Sprintf("/v1/characters/%d/ledger", characterID)
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var out struct {
		Entries []economy.LedgerEntry `json:"entries"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Entries, err
}

// SetSchedule configures the weekly reset window; pass nil for both to put
// the guild on manual resets only.
func (c *Client) SetSchedule(ctx context.Context, guildID int64, day, hour *int) (GuildStatus, error) {
	var out GuildStatus
	err := c.jsonRequest(ctx, http.MethodPut, fmt.Sprintf("/v1/guilds/%d/schedule", guildID), map[string]any{
		"day":  day,
		"hour": hour,
	}, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.AdminToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
