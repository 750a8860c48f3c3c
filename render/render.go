// Package render decides how to safely present a stamp record's payload.
//
// The decision is a total function over (declared content type, decode
// outcome): markup renders inside an isolated sandbox, raster images decode
// to an inline bitmap, and everything else (including any decode failure)
// takes the fallback path. Categories never mix.
package render

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/stampworks/stampcard/stamp"
)

// Strategy names the rendering path chosen for a record.
type Strategy string

const (
	StrategyMarkup   Strategy = "markup"
	StrategyImage    Strategy = "image"
	StrategyFallback Strategy = "fallback"
)

// Category classifies a declared content type. Unrecognized and missing
// types are CategoryOther by contract.
type Category string

const (
	CategoryMarkup Category = "markup"
	CategoryImage  Category = "image"
	CategoryOther  Category = "other"
)

// Classify maps a declared content type to its category.
func Classify(contentType string) Category {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "text/html" || ct == "application/xhtml+xml":
		return CategoryMarkup
	case strings.HasPrefix(ct, "image/"):
		return CategoryImage
	default:
		return CategoryOther
	}
}

// Plan is the resolved rendering decision for a loaded record. Exactly one
// strategy's fields are populated.
type Plan struct {
	Strategy Strategy `json:"strategy"`

	// Markup strategy.
	SrcDoc          string  `json:"srcdoc,omitempty"`           // normalized markup for the sandboxed frame
	Sandbox         Sandbox `json:"sandbox,omitempty"`          // isolation capability set
	StaticPreview   string  `json:"static_preview,omitempty"`   // sanitized HTML for surfaces without an isolation boundary
	TextAlternative string  `json:"text_alternative,omitempty"` // plain-text rendition for the card back

	// Image strategy.
	ImageSrc  string `json:"image_src,omitempty"` // data URI
	Pixelated bool   `json:"pixelated,omitempty"` // nearest-neighbor scaling for low-res art
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`

	// Fallback strategy.
	FallbackURL string `json:"fallback_url,omitempty"` // empty means the built-in placeholder
	Placeholder bool   `json:"placeholder,omitempty"`

	// DecodeFailure notes why a markup/image record fell back. Informational
	// only: a decode failure is not a load failure.
	DecodeFailure string `json:"decode_failure,omitempty"`
}

// Planner produces render plans. Safe for concurrent use: the sanitizer
// policy and markdown converter are read-only after construction.
type Planner struct {
	sanitizer *bluemonday.Policy
	md        *converter.Converter
}

// NewPlanner creates a Planner.
func NewPlanner() *Planner {
	return &Planner{
		sanitizer: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Plan resolves the rendering strategy for rec. It never fails: any decode
// problem demotes the record to the fallback path with the reason noted.
func (p *Planner) Plan(rec *stamp.Record) Plan {
	switch Classify(rec.ContentType) {
	case CategoryMarkup:
		return p.planMarkup(rec)
	case CategoryImage:
		return p.planImage(rec)
	default:
		return fallbackPlan(rec, "")
	}
}

func (p *Planner) planMarkup(rec *stamp.Record) Plan {
	if len(rec.Payload) == 0 {
		return fallbackPlan(rec, "markup record has no inline payload")
	}
	normalized, err := NormalizeMarkup(rec.Payload)
	if err != nil {
		return fallbackPlan(rec, "markup parse: "+err.Error())
	}
	return Plan{
		Strategy:        StrategyMarkup,
		SrcDoc:          normalized,
		Sandbox:         DefaultSandbox(),
		StaticPreview:   p.sanitizer.Sanitize(string(rec.Payload)),
		TextAlternative: p.textAlternative(string(rec.Payload)),
	}
}

func (p *Planner) planImage(rec *stamp.Record) Plan {
	if len(rec.Payload) == 0 {
		return fallbackPlan(rec, "image record has no inline payload")
	}
	img, err := DecodeImage(rec.Payload)
	if err != nil {
		return fallbackPlan(rec, "image decode: "+err.Error())
	}
	return Plan{
		Strategy:  StrategyImage,
		ImageSrc:  img.DataURI,
		Pixelated: true,
		Width:     img.Width,
		Height:    img.Height,
	}
}

func fallbackPlan(rec *stamp.Record, decodeFailure string) Plan {
	plan := Plan{
		Strategy:      StrategyFallback,
		DecodeFailure: decodeFailure,
	}
	if rec.RemoteURL != "" {
		plan.FallbackURL = rec.RemoteURL
	} else {
		plan.Placeholder = true
	}
	return plan
}

// textAlternative converts markup to plain markdown text. Conversion
// failures degrade to an empty alternative, never to an error.
func (p *Planner) textAlternative(markup string) string {
	out, err := p.md.ConvertString(markup)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
