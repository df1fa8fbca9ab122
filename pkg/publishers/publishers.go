package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one entry of the publishers file. Only the block matching
// Type is consulted.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// AWSConfig holds the settings shared by the AWS publishers. Endpoint and the
// static key pair are optional and mostly useful against local emulators.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSPublisherConfig targets one queue.
type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSConfig `yaml:",inline"`
}

// SNSPublisherConfig targets one topic.
type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSConfig `yaml:",inline"`
}

type PubSubPublisherConfig struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
	Topic     string `json:"topic" yaml:"topic"`
}

// HTTPPublisherConfig describes a webhook. Method defaults to POST and
// TimeoutSeconds to 5.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// target is the per-type block of a PublisherConfig.
type target interface {
	normalize()
	validate() error
}

// ConfigRegistry holds the validated entries of a publishers file, in file order.
// It is read-only after LoadRegistry.
type ConfigRegistry struct {
	entries []PublisherConfig
}

// LoadRegistry reads a YAML or JSON publishers file. The format follows the
// extension; files without one are read as YAML, which also accepts JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &file)
	} else {
		err = yaml.Unmarshal(raw, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", filepath.Base(path), err)
	}

	reg := &ConfigRegistry{entries: make([]PublisherConfig, 0, len(file.Publishers))}
	seen := make(map[string]bool, len(file.Publishers))
	for i, cfg := range file.Publishers {
		if err := cfg.prepare(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("publishers[%d]: duplicate id %q", i, cfg.ID)
		}
		seen[cfg.ID] = true
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

// prepare normalizes the entry in place and checks it is buildable.
func (c *PublisherConfig) prepare() error {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	if c.ID == "" {
		return errors.New("id is required")
	}
	t, err := c.target()
	if err != nil {
		return fmt.Errorf("publisher %q: %w", c.ID, err)
	}
	t.normalize()
	if err := t.validate(); err != nil {
		return fmt.Errorf("publisher %q: %s.%w", c.ID, c.Type, err)
	}
	return nil
}

// target returns a private copy of the block selected by Type, so normalizing
// never writes through pointers the caller still holds.
func (c *PublisherConfig) target() (target, error) {
	missing := fmt.Errorf("%s block is required", c.Type)
	switch c.Type {
	case "":
		return nil, errors.New("type is required")
	case TypeSQS:
		if c.SQS == nil {
			return nil, missing
		}
		cp := *c.SQS
		c.SQS = &cp
		return c.SQS, nil
	case TypeSNS:
		if c.SNS == nil {
			return nil, missing
		}
		cp := *c.SNS
		c.SNS = &cp
		return c.SNS, nil
	case TypePubSub:
		if c.PubSub == nil {
			return nil, missing
		}
		cp := *c.PubSub
		c.PubSub = &cp
		return c.PubSub, nil
	case TypeHTTP:
		if c.HTTP == nil {
			return nil, missing
		}
		cp := *c.HTTP
		c.HTTP = &cp
		return c.HTTP, nil
	default:
		return nil, fmt.Errorf("unsupported type %q", c.Type)
	}
}

func (a *AWSConfig) normalize() {
	for _, f := range []*string{&a.Region, &a.Endpoint, &a.AccessKeyID, &a.SecretAccessKey} {
		*f = strings.TrimSpace(*f)
	}
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.AWSConfig.normalize()
}

func (c *SQSPublisherConfig) validate() error {
	switch {
	case c.QueueURL == "":
		return errors.New("uri is required")
	case c.Region == "":
		return errors.New("region is required")
	}
	return nil
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.AWSConfig.normalize()
}

func (c *SNSPublisherConfig) validate() error {
	switch {
	case c.TopicARN == "":
		return errors.New("topic_arn is required")
	case c.Region == "":
		return errors.New("region is required")
	}
	return nil
}

func (c *PubSubPublisherConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
}

func (c *PubSubPublisherConfig) validate() error {
	switch {
	case c.ProjectID == "":
		return errors.New("project_id is required")
	case c.Topic == "":
		return errors.New("topic is required")
	}
	return nil
}

// normalize applies the webhook defaults and drops blank headers.
func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	if c.Method = strings.ToUpper(strings.TrimSpace(c.Method)); c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	headers := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	c.Headers = nil
	if len(headers) > 0 {
		c.Headers = headers
	}
}

func (c *HTTPPublisherConfig) validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	return nil
}

// Lookup returns the entry with the given id.
func (r *ConfigRegistry) Lookup(id string) (PublisherConfig, bool) {
	if r != nil {
		for _, cfg := range r.entries {
			if cfg.ID == id {
				return cfg, true
			}
		}
	}
	return PublisherConfig{}, false
}

// Enabled returns the entries whose enabled flag is unset or true.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.entries {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue reports the enabled flag, defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
