package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// Webhook event names carried by the generic http payload.
const (
	EventFired    = "alert.fired"
	EventResolved = "alert.resolved"
)

// httpPayload is the body sent to webhooks of type http.
type httpPayload struct {
	Event string `json:"event"`
	Alert *Alert `json:"alert"`
}

// deliver posts a to every configured webhook. Failures are logged and
// otherwise ignored; there is no retry queue.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		body, err := webhookBody(wh.Type, a)
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"business", a.BusinessID,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

// webhookBody renders a for one webhook type.
func webhookBody(typ string, a *Alert) ([]byte, error) {
	switch typ {
	case "slack":
		return json.Marshal(slackMessage(a))
	case "teams":
		return json.Marshal(teamsCard(a))
	case "http":
		event := EventFired
		if a.State == StateResolved {
			event = EventResolved
		}
		return json.Marshal(httpPayload{Event: event, Alert: a})
	default:
		return nil, fmt.Errorf("unknown webhook type %q", typ)
	}
}

// slackMessage is an incoming-webhook message with one coloured attachment
// listing the business and the triggering value.
func slackMessage(a *Alert) map[string]any {
	text := fmt.Sprintf("*%s* %s", severityTag(a.Severity), a.Message)
	color := "#" + severityColor(a.Severity)
	if a.State == StateResolved {
		text = fmt.Sprintf("*[RESOLVED]* %s for %s", a.RuleName, a.BusinessID)
		color = "#2EB67D"
	}
	return map[string]any{
		"text": text,
		"attachments": []map[string]any{{
			"color": color,
			"fields": []map[string]any{
				{"title": "Business", "value": a.BusinessID, "short": true},
				{"title": "Value", "value": formatValue(a.Value), "short": true},
			},
		}},
	}
}

// teamsCard is a legacy connector MessageCard with the alert as facts.
func teamsCard(a *Alert) map[string]any {
	title := "LocalRank alert: " + a.RuleName
	if a.State == StateResolved {
		title = "LocalRank alert resolved: " + a.RuleName
	}
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    title,
		"title":      title,
		"text":       a.Message,
		"sections": []map[string]any{{
			"facts": []map[string]string{
				{"name": "Business", "value": a.BusinessID},
				{"name": "Severity", "value": a.Severity},
				{"name": "Value", "value": formatValue(a.Value)},
				{"name": "State", "value": a.State},
			},
		}},
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityTag(s string) string {
	if s == "" {
		s = "info"
	}
	return "[" + strings.ToUpper(s) + "]"
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "E01E5A"
	case "warning":
		return "ECB22E"
	default:
		return "36C5F0"
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
