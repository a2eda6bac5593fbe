package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charleschow/fairodds/internal/core/strategy"
	"github.com/charleschow/fairodds/internal/events"
	"github.com/charleschow/fairodds/internal/telemetry"
)

var ErrRateLimited = errors.New("discord rate limited")

type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

func (n *Notifier) SendText(ctx context.Context, msg string) error {
	return n.send(ctx, webhookPayload{Content: msg})
}

func (n *Notifier) SendEmbed(ctx context.Context, embed Embed) error {
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return n.send(ctx, webhookPayload{Embeds: []Embed{embed}})
}

func (n *Notifier) send(ctx context.Context, payload webhookPayload) error {
	if !n.Enabled() {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		telemetry.Warnf("discord: rate limited")
		return ErrRateLimited
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook: status=%d", resp.StatusCode)
	}

	return nil
}

// --- Convenience methods for common alert types ---

const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
	ColorYellow = 0xF1C40F
	ColorBlue   = 0x3498DB
)

// ValueAlert posts a value flag for one match minute.
func (n *Notifier) ValueAlert(ctx context.Context, ev events.ValueFlaggedEvent) error {
	color := ColorYellow
	if ev.Tier == string(strategy.TierStrong) {
		color = ColorGreen
	}
	return n.SendEmbed(ctx, Embed{
		Title:       fmt.Sprintf("Value on over %.1f: %s", ev.Line, strategy.Tier(ev.Tier).Label()),
		Description: fmt.Sprintf("%s vs %s", ev.Home, ev.Away),
		Color:       color,
		Fields: []Field{
			{Name: "Minute", Value: fmt.Sprintf("%d", ev.Minute), Inline: true},
			{Name: "Fair", Value: fmt.Sprintf("%.2f", ev.FairOdd), Inline: true},
			{Name: "Live", Value: fmt.Sprintf("%.2f", ev.LiveOdd), Inline: true},
			{Name: "Edge", Value: fmt.Sprintf("%+.1f%%", ev.EdgePct), Inline: true},
			{Name: "Match", Value: ev.MatchID, Inline: false},
		},
	})
}

// MatchClosed posts the final line of a closed session.
func (n *Notifier) MatchClosed(ctx context.Context, ev events.MatchClosedEvent) error {
	return n.SendEmbed(ctx, Embed{
		Title:       "Match closed",
		Description: fmt.Sprintf("%s  %d x %d at minute %d (%d submissions)", ev.MatchID, ev.HomeGoals, ev.AwayGoals, ev.Minute, ev.Submitted),
		Color:       ColorBlue,
	})
}
