package publishers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-articles/internal/domain"
)

func testArticle() domain.Article {
	return domain.Article{ID: 1, Title: "Hi", Author: "ann"}
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: HTTP
    enabled: true
    http:
      url: " https://example.com/2 "
  - id: sns1
    type: sns
    sns:
      topic_arn: arn:aws:sns:us-east-1:000000000000:articles
      region: us-east-1
      endpoint: http://localhost:4566
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "sns1" {
		t.Fatalf("expected http2 and sns1 enabled, got %#v", enabled)
	}
	if enabled[0].HTTP.URL != "https://example.com/2" || enabled[0].HTTP.Method != "POST" {
		t.Fatalf("http config not sanitized: %#v", enabled[0].HTTP)
	}
	if enabled[0].HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("timeout default not applied: %d", enabled[0].HTTP.TimeoutSeconds)
	}
	sns1, ok := reg.Lookup("sns1")
	if !ok || sns1.SNS.Region != "us-east-1" || sns1.SNS.Endpoint != "http://localhost:4566" {
		t.Fatalf("sns config not decoded: %#v", sns1.SNS)
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers":[
		{"id":"a","type":"http","http":{"url":"https://example.com"}},
		{"id":"a","type":"http","http":{"url":"https://example.com"}}
	]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestPrepareRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name string
		cfg  PublisherConfig
		want string
	}{
		{"missing id", PublisherConfig{Type: TypeHTTP}, "id is required"},
		{"missing type", PublisherConfig{ID: "x"}, "type is required"},
		{"unknown type", PublisherConfig{ID: "x", Type: "kafka"}, "unsupported type"},
		{"missing http block", PublisherConfig{ID: "h1", Type: TypeHTTP}, "http block is required"},
		{"blank http url", PublisherConfig{ID: "h1", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "  "}}, "http.url is required"},
		{"sqs without region", PublisherConfig{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://example.com/queue"}}, "sqs.region is required"},
		{"sns without topic", PublisherConfig{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSConfig: AWSConfig{Region: "us-east-1"}}}, "sns.topic_arn is required"},
		{"pubsub without topic", PublisherConfig{ID: "p1", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "proj"}}, "pubsub.topic is required"},
	}
	for _, tc := range cases {
		cfg := tc.cfg
		err := cfg.prepare()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestPrepareNormalizesHTTPBlock(t *testing.T) {
	orig := &HTTPPublisherConfig{
		URL:     " https://example.com/hook ",
		Method:  " put ",
		Headers: map[string]string{" X-Source ": " articlesd ", "X-Empty": " ", "": "v"},
	}
	cfg := PublisherConfig{ID: " h1 ", Type: " HTTP ", HTTP: orig}
	if err := cfg.prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if cfg.ID != "h1" || cfg.Type != TypeHTTP {
		t.Fatalf("id/type not normalized: %q %q", cfg.ID, cfg.Type)
	}
	h := cfg.HTTP
	if h.URL != "https://example.com/hook" || h.Method != "PUT" || h.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http block not normalized: %#v", h)
	}
	if len(h.Headers) != 1 || h.Headers["X-Source"] != "articlesd" {
		t.Fatalf("headers not cleaned: %#v", h.Headers)
	}
	if orig.URL != " https://example.com/hook " {
		t.Fatalf("caller's block was modified: %#v", orig)
	}
}

func TestLoadRegistryRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadRegistry("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadRegistry(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("publishers: [}"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(bad); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewEventAssignsIdentity(t *testing.T) {
	a := NewEvent(EventArticleDeleted, testArticle())
	b := NewEvent(EventArticleDeleted, testArticle())
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique event ids, got %q and %q", a.ID, b.ID)
	}
	if a.Type != EventArticleDeleted || a.OccurredAt.IsZero() {
		t.Fatalf("unexpected event %#v", a)
	}
}
