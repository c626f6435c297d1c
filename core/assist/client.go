// Package assist consumes the external text-completion service behind the
// FlowAssist features. The service is treated as total: every call resolves
// to a displayable string, with explicit sentinels for quota exhaustion and
// generic outages. Core CRUD flows never depend on it.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"safeflow/config"
	"safeflow/core/store"
	"safeflow/core/utils"
)

// ErrConversationBusy is returned when a chat call is already in flight for
// the same conversation; the caller retries after the first one resolves.
var ErrConversationBusy = errors.New("conversation busy")

const (
	quotaFallback = "QUOTA_EXCEEDED: The AI analysis engine is currently at peak capacity. " +
		"Please proceed with manual investigation following standard HSE protocols for this incident category."
	systemFallback = "SYSTEM_ERROR: AI insights are currently unavailable due to a technical interruption. " +
		"Please review the incident details manually."
	offlineRecommendation = "AI recommendations currently unavailable."
	offlineReport         = "Report generation requires an active API connection."
	offlineChat           = "I am currently offline. Please contact your local HSE department."
)

type ChatTurn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Client calls a Gemini-style generateContent endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *utils.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewClient(cfg *config.AssistConfig, logger *utils.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.EffectiveTimeout()},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		logger:     logger,
		inFlight:   map[string]bool{},
	}
}

// SafetyRecommendations analyzes one incident and suggests corrective and
// preventive measures.
func (c *Client) SafetyRecommendations(ctx context.Context, inc store.Incident) string {
	if c.apiKey == "" {
		return offlineRecommendation
	}
	location := inc.Location.Address
	if location == "" {
		location = "Unknown"
	}
	prompt := fmt.Sprintf(`Analyze this HSE incident and suggest immediate corrective actions and long-term prevention strategies:

Category: %s
Severity: %s
Description: %s
Timestamp: %s
Location: %s

Return the response as a clear, professional set of recommendations for an industrial oil & gas setting. Use bullet points.`,
		inc.Category, inc.Severity, inc.Description, inc.Timestamp.Format(time.RFC3339), location)
	text, err := c.generate(ctx, "", prompt)
	if err != nil {
		return fallbackFor(err)
	}
	if text == "" {
		return "No recommendations generated for this specific incident data."
	}
	return text
}

// ExecutiveSummary produces the board-level compliance report over the
// current incident snapshot.
func (c *Client) ExecutiveSummary(ctx context.Context, incidents []store.Incident) string {
	if c.apiKey == "" {
		return offlineReport
	}
	if len(incidents) == 0 {
		return "No incident data available for analysis."
	}
	var lines []string
	for _, inc := range incidents {
		lines = append(lines, fmt.Sprintf("[ID: %s] CAT: %s, SEV: %s, DESC: %s, STATUS: %s",
			inc.ID, inc.Category, inc.Severity, inc.Description, inc.Status))
	}
	prompt := fmt.Sprintf(`You are a Lead HSE Compliance Director for a major Nigerian Oil & Gas operator.
Analyze the following recent incident dataset and produce a formal Board-Level Executive Summary.

Structure the report with these EXACT sections:
1. OPERATIONAL READINESS OVERVIEW: A high-level assessment of the safety culture based on these incidents.
2. KEY RISK CLUSTERS: Identify if specific categories (e.g., Gas Leaks) are trending and why.
3. REGULATORY EXPOSURE (NUPRC/NMDPRA): Specifically address potential penalties or mandatory reporting requirements under Nigerian Petroleum Industry Act (PIA) guidelines for these specific incidents.
4. STRATEGIC MITIGATION PLAN: 3 concrete, high-impact policy or technical changes recommended.

Incident Data:
%s

Tone: Extremely professional, data-driven, and authoritative.
Formatting: Use Markdown headers and bulleted lists.`, strings.Join(lines, "\n"))
	text, err := c.generate(ctx, "", prompt)
	if err != nil {
		return fallbackFor(err)
	}
	if text == "" {
		return "Executive report could not be compiled from provided data."
	}
	return text
}

// ChatReply answers a FlowAssist chat message with role-aware guidance. At
// most one call per conversation may be in flight; concurrent calls fail
// fast with ErrConversationBusy instead of queueing.
func (c *Client) ChatReply(ctx context.Context, conversationID, message, role string, history []ChatTurn) (string, error) {
	if !c.acquire(conversationID) {
		return "", ErrConversationBusy
	}
	defer c.release(conversationID)

	if c.apiKey == "" {
		return offlineChat, nil
	}
	system := fmt.Sprintf(`You are 'FlowAssist', the official AI assistant for SafeFlow HSE Compliance Automation.
Your goal is to help users navigate the app and understand HSE procedures in the Nigerian Oil & Gas industry.

The user's role is: %s.

Contextual Guidelines:
- If the user is a Field Worker: Focus on how to report incidents and hazards, and tracking their own reports.
- If the user is an HSE Manager/Supervisor: Focus on analytics, assigning corrective actions, and incident investigation.
- If the user is a Compliance Officer: Focus on statutory reporting, NUPRC/NMDPRA regulations, and audit readiness.

SafeFlow Modules:
1. Dashboard: Overview of safety status.
2. Incident Manager: Reporting and investigating events.
3. Action Tracker: Managing corrective actions.
4. Audit Manager: Digital checklists and inspections.
5. Reports: Performance trends and regulatory logs.

Keep responses concise, professional, and safety-oriented. Use Nigerian Oil & Gas industry terminology where appropriate (e.g., PIA, NUPRC, LTI).`, role)

	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString(strings.ToUpper(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("USER: ")
	sb.WriteString(message)

	text, err := c.generate(ctx, system, sb.String())
	if err != nil {
		return fallbackFor(err), nil
	}
	if text == "" {
		return "I'm sorry, I couldn't process that request. How else can I help with your HSE needs?", nil
	}
	return text, nil
}

func (c *Client) acquire(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[conversationID] {
		return false
	}
	c.inFlight[conversationID] = true
	return true
}

func (c *Client) release(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, conversationID)
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

var errQuota = errors.New("quota exceeded")

func (c *Client) generate(ctx context.Context, system, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if system != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("assist request failed: %v", err)
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusTooManyRequests || bytes.Contains(body, []byte("RESOURCE_EXHAUSTED")) {
		c.logger.Errorf("assist quota exhausted: status %d", resp.StatusCode)
		return "", errQuota
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Errorf("assist api status %d", resp.StatusCode)
		return "", fmt.Errorf("assist api status %d", resp.StatusCode)
	}
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func fallbackFor(err error) string {
	if errors.Is(err, errQuota) {
		return quotaFallback
	}
	return systemFallback
}
