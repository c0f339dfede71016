package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadPassRate(t *testing.T) {
	assert.Equal(t, "0%", Payload{}.PassRate())
	assert.Equal(t, "66.67%", Payload{Total: 3, Passed: 2}.PassRate())
	assert.Equal(t, "100.00%", Payload{Total: 2, Passed: 2}.PassRate())
}

func TestSignIsDeterministic(t *testing.T) {
	// Fixed inputs must always sign the same way; the value below was
	// computed from the documented HMAC-SHA256(base64, url-escape) scheme.
	got := sign(1600000000000, "SECtest")
	assert.Equal(t, got, sign(1600000000000, "SECtest"))
	assert.NotEqual(t, got, sign(1600000000001, "SECtest"))
	assert.NotEqual(t, got, sign(1600000000000, "SECother"))
	// URL-escaped base64 never contains a raw '+'.
	assert.NotContains(t, got, "+")
}

func TestBuildReportMarkdown(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	title, text := buildReportMarkdown(Payload{
		Total: 5, Passed: 3, Failed: 2, Skipped: 0,
		Duration:    "2m 5s",
		FailedCases: []string{"login broken", "search broken"},
		Environment: "prod",
	}, now)

	assert.Contains(t, title, "❌")
	assert.Contains(t, text, "**Environment**: prod")
	assert.Contains(t, text, "FAILED")
	assert.Contains(t, text, "**Pass rate**: 60.00%")
	assert.Contains(t, text, "1. login broken")
	assert.Contains(t, text, "2. search broken")
	assert.Contains(t, text, "2026-01-02 03:04:05")
}

func TestBuildReportMarkdownTruncatesFailedList(t *testing.T) {
	cases := make([]string, 14)
	for i := range cases {
		cases[i] = "case"
	}
	_, text := buildReportMarkdown(Payload{Total: 14, Failed: 14, FailedCases: cases}, time.Now())

	assert.Contains(t, text, "... and 4 more failed case(s)")
	assert.Equal(t, maxFailedCasesShown, strings.Count(text, ". case"))
}

func TestBuildReportMarkdownStatusVariants(t *testing.T) {
	_, passed := buildReportMarkdown(Payload{Total: 1, Passed: 1}, time.Now())
	assert.Contains(t, passed, ">PASSED<")

	_, skipped := buildReportMarkdown(Payload{Total: 2, Passed: 1, Skipped: 1}, time.Now())
	assert.Contains(t, skipped, "PASSED WITH SKIPS")
}

func TestSendPostsSignedRequest(t *testing.T) {
	var gotURL string
	var gotMsg dingTalkMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	d := NewDingTalk(srv.URL+"/robot/send?access_token=xyz", "SECtest", log.NewLogger(log.DiscardHandler()))
	d.now = func() time.Time { return time.UnixMilli(1600000000000) }

	err := d.Send(context.Background(), Payload{
		Total: 2, Passed: 1, Failed: 1,
		Duration:    "45s",
		FailedCases: []string{"broken"},
		Environment: "test",
	})
	require.NoError(t, err)

	assert.Contains(t, gotURL, "timestamp=1600000000000")
	assert.Contains(t, gotURL, "sign="+sign(1600000000000, "SECtest"))
	assert.Equal(t, "markdown", gotMsg.MsgType)
	assert.True(t, gotMsg.At.IsAtAll, "failures mention everyone")
	assert.Contains(t, gotMsg.Markdown.Text, "**Duration**: 45s")
}

func TestSendUnsignedWhenNoSecret(t *testing.T) {
	var gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	d := NewDingTalk(srv.URL+"/robot/send?access_token=xyz", "", log.NewLogger(log.DiscardHandler()))
	require.NoError(t, d.Send(context.Background(), Payload{Total: 1, Passed: 1}))
	assert.NotContains(t, gotURL, "sign=")
}

func TestSendReportsAPIRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
	}))
	defer srv.Close()

	d := NewDingTalk(srv.URL, "", log.NewLogger(log.DiscardHandler()))
	err := d.Send(context.Background(), Payload{Total: 1, Passed: 1})
	assert.ErrorContains(t, err, "sign not match")
}

func TestSendRequiresWebhook(t *testing.T) {
	d := NewDingTalk("", "", log.NewLogger(log.DiscardHandler()))
	assert.ErrorContains(t, d.Send(context.Background(), Payload{}), "not configured")
}
