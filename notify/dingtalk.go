package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

const dingTalkTimeout = 10 * time.Second

// maxFailedCasesShown caps the failed-case list in the message body.
const maxFailedCasesShown = 10

// DingTalk sends run summaries to a DingTalk group robot webhook. When a
// signing secret is configured the webhook URL is extended with the
// timestamp+sign query parameters DingTalk expects.
type DingTalk struct {
	webhook string
	secret  string
	client  *http.Client
	log     log.Logger
	now     func() time.Time
}

var _ Notifier = (*DingTalk)(nil)

// NewDingTalk creates a DingTalk notifier. The secret may be empty when
// the robot has signing disabled.
func NewDingTalk(webhook, secret string, logger log.Logger) *DingTalk {
	if logger == nil {
		logger = log.Root()
	}
	return &DingTalk{
		webhook: webhook,
		secret:  secret,
		client:  &http.Client{Timeout: dingTalkTimeout},
		log:     logger,
		now:     time.Now,
	}
}

// dingTalkMessage is the robot API request body.
type dingTalkMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
	At struct {
		AtMobiles []string `json:"atMobiles"`
		IsAtAll   bool     `json:"isAtAll"`
	} `json:"at"`
}

// dingTalkResponse is the robot API response body.
type dingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Send builds the markdown report and posts it to the webhook. Everybody
// in the group is @-mentioned when the run has failures.
func (d *DingTalk) Send(ctx context.Context, payload Payload) error {
	if d.webhook == "" {
		return fmt.Errorf("dingtalk webhook is not configured")
	}

	title, text := buildReportMarkdown(payload, d.now())

	msg := dingTalkMessage{MsgType: "markdown"}
	msg.Markdown.Title = title
	msg.Markdown.Text = text
	msg.At.AtMobiles = []string{}
	msg.At.IsAtAll = payload.Failed > 0

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode dingtalk message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.signedWebhookURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build dingtalk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post dingtalk message: %w", err)
	}
	defer resp.Body.Close()

	var result dingTalkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode dingtalk response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk rejected message: %s (errcode %d)", result.ErrMsg, result.ErrCode)
	}

	d.log.Info("DingTalk notification sent", "environment", payload.Environment, "failed", payload.Failed)
	return nil
}

// signedWebhookURL appends the timestamp and HMAC-SHA256 signature query
// parameters when a secret is configured.
func (d *DingTalk) signedWebhookURL() string {
	if d.secret == "" {
		return d.webhook
	}
	timestamp := d.now().UnixMilli()
	return fmt.Sprintf("%s&timestamp=%d&sign=%s", d.webhook, timestamp, sign(timestamp, d.secret))
}

// sign computes the DingTalk robot signature: HMAC-SHA256 over
// "<timestamp>\n<secret>" keyed by the secret, base64 then URL-escaped.
func sign(timestamp int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d\n%s", timestamp, secret)
	return url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// buildReportMarkdown renders the report body shown in the group chat.
func buildReportMarkdown(p Payload, now time.Time) (title, text string) {
	var statusIcon, statusText, statusColor string
	switch {
	case p.Failed > 0:
		statusIcon, statusText, statusColor = "❌", "FAILED", "#FF0000"
	case p.Skipped > 0:
		statusIcon, statusText, statusColor = "⚠️", "PASSED WITH SKIPS", "#FFA500"
	default:
		statusIcon, statusText, statusColor = "✅", "PASSED", "#00FF00"
	}

	title = fmt.Sprintf("%s UI Test Report", statusIcon)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s UI Test Report\n---\n### Results\n", statusIcon)
	fmt.Fprintf(&b, "- **Environment**: %s\n", p.Environment)
	fmt.Fprintf(&b, "- **Status**: <font color='%s'>%s</font>\n", statusColor, statusText)
	fmt.Fprintf(&b, "- **Total**: %d\n", p.Total)
	fmt.Fprintf(&b, "- **Passed**: <font color='#00FF00'>%d</font>\n", p.Passed)
	fmt.Fprintf(&b, "- **Failed**: <font color='#FF0000'>%d</font>\n", p.Failed)
	fmt.Fprintf(&b, "- **Skipped**: <font color='#FFA500'>%d</font>\n", p.Skipped)
	fmt.Fprintf(&b, "- **Pass rate**: %s\n", p.PassRate())
	fmt.Fprintf(&b, "- **Duration**: %s\n", p.Duration)

	if p.Failed > 0 && len(p.FailedCases) > 0 {
		b.WriteString("\n### ❌ Failed cases\n")
		for i, name := range p.FailedCases {
			if i >= maxFailedCasesShown {
				fmt.Fprintf(&b, "\n... and %d more failed case(s)\n", len(p.FailedCases)-maxFailedCasesShown)
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
	}

	fmt.Fprintf(&b, "\n---\n*%s*\n", now.Format("2006-01-02 15:04:05"))
	return title, b.String()
}

func percent(part, whole int) string {
	return fmt.Sprintf("%.2f%%", float64(part)/float64(whole)*100)
}
