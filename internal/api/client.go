// Package api talks to the rewards service that settles finished matches.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/royale/pkg/core"
)

// Client handles communication with the rewards service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Settlement is the body posted when a match ends.
type Settlement struct {
	MatchID    string             `json:"matchId"`
	EndedAt    time.Time          `json:"endedAt"`
	Reason     string             `json:"reason"`
	DurationMs int64              `json:"durationMs"`
	WinnerTeam string             `json:"winnerTeam,omitempty"`
	Players    []PlayerSettlement `json:"players"`
}

// PlayerSettlement is one player's line in a settlement.
type PlayerSettlement struct {
	PlayerID  string  `json:"playerId"`
	TeamID    string  `json:"teamId"`
	Placement int     `json:"placement"`
	Kills     int     `json:"kills"`
	Damage    float64 `json:"damage"`
	Winner    bool    `json:"winner"`
}

// NewSettlement builds the settlement body for a result.
func NewSettlement(res core.MatchResult) Settlement {
	s := Settlement{
		MatchID:    res.MatchID,
		EndedAt:    res.EndedAt,
		Reason:     string(res.Reason),
		DurationMs: res.Duration.Milliseconds(),
		Players:    make([]PlayerSettlement, 0, len(res.Players)),
	}
	if res.Winner != nil {
		s.WinnerTeam = res.Winner.TeamID
	}
	for _, p := range res.Players {
		s.Players = append(s.Players, PlayerSettlement{
			PlayerID:  p.PlayerID,
			TeamID:    p.TeamID,
			Placement: p.Placement,
			Kills:     p.Stats.Kills,
			Damage:    p.Stats.DamageDealt,
			Winner:    res.Winner != nil && p.TeamID == res.Winner.TeamID,
		})
	}
	return s
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Healthcheck checks if the rewards service is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Settle reports a finished match so rewards can be paid out.
func (c *Client) Settle(ctx context.Context, res core.MatchResult) error {
	body, err := json.Marshal(NewSettlement(res))
	if err != nil {
		return fmt.Errorf("failed to encode settlement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/matches/settle", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("settle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("settle returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// UploadReplay sends an exported replay file for a match.
func (c *Client) UploadReplay(ctx context.Context, filePath, matchID string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer writer.Close()

		_ = writer.WriteField("matchId", matchID)
		_ = writer.WriteField("filename", filepath.Base(filePath))

		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			errCh <- fmt.Errorf("failed to create form file: %w", err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			errCh <- fmt.Errorf("failed to copy file: %w", err)
			return
		}
		errCh <- nil
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/matches/replay", pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return writeErr
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}
