package stamp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stampworks/stampcard/safeurl"
)

// Config configures the indexer client.
type Config struct {
	// BaseURL is the indexer API root, e.g. "https://stampchain.io/api".
	BaseURL string
	// Timeout is the per-request HTTP timeout. Default: 30s.
	Timeout time.Duration
	// MaxBytes caps the response body size. Default: 10MB (stamps embed
	// their payload inline, base64-encoded).
	MaxBytes int64
	// UserAgent sent with requests.
	UserAgent string
	// URLValidator validates URLs before fetch (SSRF prevention).
	// Default: safeurl.Validate.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "stampcard/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = safeurl.Validate
	}
}

// Client fetches stamp records from the indexer.
type Client struct {
	client *http.Client
	config Config
}

// NewClient creates a Client with SSRF protection on redirects.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked (SSRF): %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// wireRecord is the indexer response shape. The payload arrives either as
// inline base64 bytes or as a remote URL; dispensers may express the rate as
// a decimal BTC string/number ("0.0015") or as integer satoshis.
type wireRecord struct {
	StampID     string          `json:"stamp_id"`
	ContentType string          `json:"content_type"`
	Payload     string          `json:"payload,omitempty"`
	URL         string          `json:"url,omitempty"`
	Dispensers  []wireDispenser `json:"dispensers"`
}

type wireDispenser struct {
	Source    string      `json:"source"`
	Rate      json.Number `json:"rate,omitempty"`
	RateSats  int64       `json:"rate_sats,omitempty"`
	Remaining int64       `json:"remaining"`
	Total     int64       `json:"total"`
}

// Fetch retrieves the record for stampID. Returns ErrNotFound for unknown
// identifiers and ErrMalformed (wrapped) when the response cannot be decoded.
func (c *Client) Fetch(ctx context.Context, stampID string) (*Record, error) {
	if err := safeurl.ValidateIdentifier(stampID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	reqURL := strings.TrimRight(c.config.BaseURL, "/") + "/stamps/" + url.PathEscape(stampID)
	if err := c.config.URLValidator(reqURL); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, stampID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := safeurl.LimitedReadAll(resp.Body, c.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var wire wireRecord
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decodeRecord(stampID, &wire)
}

func decodeRecord(stampID string, wire *wireRecord) (*Record, error) {
	rec := &Record{
		StampID:     stampID,
		ContentType: strings.ToLower(strings.TrimSpace(wire.ContentType)),
		RemoteURL:   wire.URL,
	}
	if wire.StampID != "" && wire.StampID != stampID {
		return nil, fmt.Errorf("%w: record is for %q, requested %q", ErrMalformed, wire.StampID, stampID)
	}

	if wire.Payload != "" {
		payload, err := base64.StdEncoding.DecodeString(wire.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: payload base64: %v", ErrMalformed, err)
		}
		rec.Payload = payload
	}

	rec.Offers = make([]Offer, 0, len(wire.Dispensers))
	for i, d := range wire.Dispensers {
		if d.Source == "" {
			return nil, fmt.Errorf("%w: dispenser %d has no source address", ErrMalformed, i)
		}
		sats, err := dispenserRate(d)
		if err != nil {
			return nil, fmt.Errorf("%w: dispenser %s: %v", ErrMalformed, d.Source, err)
		}
		rec.Offers = append(rec.Offers, Offer{
			Source:    d.Source,
			RateSats:  sats,
			Remaining: d.Remaining,
			Total:     d.Total,
		})
	}
	return rec, nil
}

func dispenserRate(d wireDispenser) (int64, error) {
	if d.RateSats > 0 {
		return d.RateSats, nil
	}
	if d.Rate == "" {
		return 0, fmt.Errorf("no rate")
	}
	return ParseBTC(d.Rate.String())
}

// ParseBTC converts a decimal BTC amount ("0.0015") to satoshis without
// going through floating point. At most 8 fractional digits are accepted,
// and amounts that do not fit in int64 satoshis are rejected.
func ParseBTC(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 8 {
		return 0, fmt.Errorf("more than 8 decimal places: %q", s)
	}
	// Right-pad the fraction to 8 digits: "0015" -> "00150000".
	frac += strings.Repeat("0", 8-len(frac))

	var sats int64
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("invalid amount %q", s)
			}
			d := int64(r - '0')
			if sats > (math.MaxInt64-d)/10 {
				return 0, fmt.Errorf("amount out of range: %q", s)
			}
			sats = sats*10 + d
		}
	}
	return sats, nil
}
