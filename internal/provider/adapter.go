// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/protoforge/internal/util"
)

const (
	// MaxResponseSize caps how much of a response body is read.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	userAgent = "protoforge/0.1.0"
)

// Completer produces one assistant reply for an ordered list of turns.
// *Adapter implements it; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter issues chat turns to a single provider. The vendor-specific request
// builder and reply extractor are fixed when the Adapter is constructed.
type Adapter struct {
	desc       Descriptor
	credential string
	variant    variant
	endpoint   string // full request URL, may carry the key for Google
	model      string
	client     *http.Client
	timeout    time.Duration
	logger     *log.Logger
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// WithTimeout sets an overall request timeout. It is applied to a copy of
// the final HTTP client, so it holds whatever order WithHTTPClient is given
// in. Zero keeps the client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.timeout = d
	}
}

// WithModel overrides the variant's default model name.
func WithModel(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.model = name
		}
	}
}

// WithBaseURL overrides the descriptor's endpoint.
func WithBaseURL(base string) Option {
	return func(a *Adapter) {
		if base != "" {
			a.desc.BaseURL = base
		}
	}
}

// WithLogger enables request logging. Credentials are never logged.
func WithLogger(l *log.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New validates desc and credential and returns an Adapter bound to the
// matching provider variant. It fails with *ConfigurationError before any
// network activity.
func New(desc Descriptor, credential string, opts ...Option) (*Adapter, error) {
	if desc.ID == "" {
		return nil, ErrNoProvider
	}
	if err := ValidateCredential(desc, credential); err != nil {
		return nil, err
	}

	v := variantFor(desc.ID)
	a := &Adapter{
		desc:       desc,
		credential: credential,
		variant:    v,
		model:      v.defaultModel(),
		client:     &http.Client{},
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.timeout > 0 {
		c := *a.client
		c.Timeout = a.timeout
		a.client = &c
	}

	base := a.desc.BaseURL
	if base == "" {
		base = v.defaultEndpoint()
	}
	if base == "" {
		return nil, &ConfigurationError{
			Field:   "base_url",
			Message: fmt.Sprintf("no endpoint configured for %s", desc.Name),
		}
	}
	endpoint, err := v.endpoint(base, credential)
	if err != nil {
		return nil, &ConfigurationError{
			Field:   "base_url",
			Message: fmt.Sprintf("invalid endpoint for %s: %v", desc.Name, err),
		}
	}
	a.endpoint = endpoint

	return a, nil
}

// Descriptor returns the provider this adapter talks to.
func (a *Adapter) Descriptor() Descriptor {
	return a.desc
}

// Model returns the model name sent with requests ("" when the provider
// does not take one).
func (a *Adapter) Model() string {
	return a.model
}

// Endpoint returns the request URL with any query string removed.
func (a *Adapter) Endpoint() string {
	return scrubURL(a.endpoint)
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends turns to the provider and returns the assistant reply text.
// It makes exactly one HTTP request: no retries, no caching, no streaming.
func (a *Adapter) Complete(ctx context.Context, turns []Turn) (string, error) {
	label := a.variant.label()

	body, err := json.Marshal(a.variant.buildRequest(turns, a.model))
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s request: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Provider: label, Endpoint: a.Endpoint(), Err: transportCause(err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	a.variant.authorize(req, a.credential)

	a.logRequest(req)
	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: label, Endpoint: a.Endpoint(), Err: transportCause(err)}
	}
	defer resp.Body.Close()
	a.logResponse(resp, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", &TransportError{Provider: label, Endpoint: a.Endpoint(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{
			Provider: label,
			Status:   resp.StatusCode,
			Message:  a.variant.errorMessage(data),
		}
	}

	reply, err := a.variant.extractReply(data)
	if err != nil {
		reason := "unexpected body"
		if errors.Is(err, errMissingField) {
			reason = "reply field missing"
			err = nil
		}
		return "", &MalformedResponseError{Provider: label, Reason: reason, Err: err}
	}
	return reply, nil
}

// =============================================================================
// LOGGING
// =============================================================================

// logRequest logs method, scrubbed URL and key fingerprint. Headers and
// bodies are never logged.
func (a *Adapter) logRequest(req *http.Request) {
	fp := "none"
	if a.credential != "" {
		fp = util.Fingerprint(a.credential)
	}
	a.logger.Printf("API Request: %s %s (provider=%s key=%s)", req.Method, scrubURL(req.URL.String()), a.desc.ID, fp)
}

func (a *Adapter) logResponse(resp *http.Response, d time.Duration) {
	a.logger.Printf("API Response: %s (%v)", resp.Status, d.Round(time.Millisecond))
}
