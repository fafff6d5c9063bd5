// Package webhook is a generic JSON-over-HTTP target.
//
// Each chunk becomes one POST of
//
//	{"title": ..., "body": ..., "type": ..., "format": ..., "part": 1, "parts": 1}
//
// A 2xx answer is a success, 4xx is a rejection and everything else is an
// error.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/caronc/apprise-sub007/internal/registry"
	"github.com/caronc/apprise-sub007/internal/target"
)

const Kind = "webhook"

type payload struct {
	Title  string `json:"title,omitempty"`
	Body   string `json:"body"`
	Type   string `json:"type"`
	Format string `json:"format"`
	Part   int    `json:"part"`
	Parts  int    `json:"parts"`
}

// Target posts notifications to an HTTP endpoint.
type Target struct {
	target.Base
	endpoint string
	method   string
	headers  map[string]string
	client   *http.Client
}

// New builds a webhook target. Params understood:
//
//	method        POST (default) or PUT
//	header.<Name> extra request header
func New(spec registry.Spec) (*Target, error) {
	u, err := url.Parse(strings.TrimSpace(spec.URL))
	if err != nil {
		return nil, fmt.Errorf("webhook: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("webhook: missing host in %q", redact(u))
	}

	method := http.MethodPost
	headers := map[string]string{}
	for k, v := range spec.Params {
		switch {
		case strings.EqualFold(k, "method"):
			m := strings.ToUpper(strings.TrimSpace(v))
			if m != http.MethodPost && m != http.MethodPut {
				return nil, fmt.Errorf("webhook: unsupported method %q", v)
			}
			method = m
		case strings.HasPrefix(strings.ToLower(k), "header."):
			name := strings.TrimSpace(k[len("header."):])
			if name != "" {
				headers[name] = v
			}
		}
	}

	base := target.NewBase(redact(u), spec.Tags, spec.Options)
	return &Target{
		Base:     base,
		endpoint: u.String(),
		method:   method,
		headers:  headers,
		client:   &http.Client{Timeout: base.Options().CallTimeout()},
	}, nil
}

// Register adds the webhook kind to tbl.
func Register(tbl *registry.Table) error {
	return tbl.Register(Kind, func(spec registry.Spec) (target.Target, error) {
		return New(spec)
	})
}

// Notify implements target.SyncTarget.
func (t *Target) Notify(ctx context.Context, msg target.Message) (bool, error) {
	body, err := json.Marshal(payload{
		Title:  msg.Title,
		Body:   msg.Body,
		Type:   string(msg.Type),
		Format: msg.Format.String(),
		Part:   msg.Part,
		Parts:  msg.Parts,
	})
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, t.method, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, nil
	default:
		return false, fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
}

// redact drops credentials and the query string so the identity is safe to log.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	c.Fragment = ""
	return c.String()
}
