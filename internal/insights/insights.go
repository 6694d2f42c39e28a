// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package insights requests a security analysis of a website from the
// backend.
package insights

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// MaxOptions is the most analysis options one request may select.
const MaxOptions = 5

// Options are the analyses the backend offers.
var Options = []string{
	"HTTP Header",
	"Find Directories",
	"Exposed JS Files",
	"ASN",
	"Find Subdomain",
	"Find Web Technology",
	"Find Admin Panel",
	"Whois Information",
	"Port Scan",
	"TCP Scan",
	"UDP Scan",
	"External Links",
	"Banner Grab",
	"Subnet Lookup",
	"Reverse IP Lookup",
	"Geo-Location",
	"DNS Lookup",
	"Trace Route",
	"Firewall Detect",
	"Vulnerability Scan",
}

// Request is a website analysis request.
type Request struct {
	URL     string   `json:"url"`
	Options []string `json:"options"`
}

// Validate checks the URL is present and options are 1..MaxOptions distinct
// entries of Options. Option names match case-insensitively and are
// rewritten to their canonical spelling.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("website URL is required")
	}
	if u, err := url.Parse(r.URL); err != nil || (u.Host == "" && u.Scheme != "") {
		return fmt.Errorf("invalid website URL %q", r.URL)
	}

	if len(r.Options) == 0 {
		return fmt.Errorf("select at least one analysis option")
	}
	if len(r.Options) > MaxOptions {
		return fmt.Errorf("at most %d analysis options can be selected, got %d", MaxOptions, len(r.Options))
	}

	seen := make(map[string]struct{}, len(r.Options))
	canonical := make([]string, 0, len(r.Options))
	for _, opt := range r.Options {
		name, ok := lookup(opt)
		if !ok {
			return fmt.Errorf("unknown analysis option %q", opt)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("analysis option %q selected twice", name)
		}
		seen[name] = struct{}{}
		canonical = append(canonical, name)
	}
	r.Options = canonical
	return nil
}

func lookup(option string) (string, bool) {
	option = strings.TrimSpace(option)
	for _, o := range Options {
		if strings.EqualFold(o, option) {
			return o, true
		}
	}
	return "", false
}

// Sender posts JSON to the backend.
type Sender interface {
	SendJSON(ctx context.Context, method, path string, in, out any) error
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

type Client struct {
	sender Sender
	logger *zap.Logger
}

func New(sender Sender, opts ...Option) *Client {
	c := &Client{sender: sender, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	Insights string `json:"insights"`
}

// Generate validates req and returns the backend's markdown report.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	c.logger.Debug("requesting insights", zap.String("url", req.URL), zap.Strings("options", req.Options))

	var resp response
	if err := c.sender.SendJSON(ctx, http.MethodPost, "/generate-insights", req, &resp); err != nil {
		return "", fmt.Errorf("generating insights for %s: %w", req.URL, err)
	}
	if resp.Insights == "" {
		return "", fmt.Errorf("generating insights for %s: empty response", req.URL)
	}
	return resp.Insights, nil
}
