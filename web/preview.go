package web

import (
	"html/template"
	"net/http"

	"github.com/stampworks/stampcard/render"
)

// previewTmpl renders a card's plan as a standalone document. Untrusted
// markup only ever appears as the srcdoc of a sandboxed iframe; the sandbox
// attribute is always present, even when every capability is off.
var previewTmpl = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Stamp {{.StampID}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#fafafa}
.stamp{width:320px;height:320px;margin:2rem auto;border:1px solid #e0e0e0;border-radius:6px;background:#fff;overflow:hidden;display:flex;align-items:center;justify-content:center}
.stamp iframe{width:100%;height:100%;border:0}
.stamp img{max-width:100%;max-height:100%}
.stamp img.pixelated{image-rendering:pixelated}
.status{color:#999;font-style:italic;text-align:center}
</style></head><body>
<div class="stamp">
{{- if eq .State "loading"}}
<p class="status">Loading…</p>
{{- else if eq .State "failed"}}
<p class="status">Could not load stamp: {{.FailReason}}</p>
{{- else if eq .Strategy "markup"}}
<iframe sandbox="{{.SandboxTokens}}" srcdoc="{{.SrcDoc}}" referrerpolicy="no-referrer" title="stamp artwork"></iframe>
{{- else if eq .Strategy "image"}}
<img src="{{.ImageSrc}}"{{if .Pixelated}} class="pixelated"{{end}} alt="stamp artwork" width="{{.Width}}" height="{{.Height}}">
{{- else}}
<img src="{{.FallbackSrc}}" alt="stamp placeholder">
{{- end}}
</div>
</body></html>`))

type previewData struct {
	StampID       string
	State         string
	FailReason    string
	Strategy      string
	SandboxTokens string
	SrcDoc        string
	ImageSrc      template.URL // data URI; the URL filter would reject it as plain string
	Pixelated     bool
	Width         int
	Height        int
	FallbackSrc   template.URL
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	c, ok := h.card(w, r)
	if !ok {
		return
	}
	v := c.Snapshot()

	data := previewData{
		StampID:    v.StampID,
		State:      string(v.State),
		FailReason: v.FailReason,
		Strategy:   string(v.Plan.Strategy),
	}
	switch v.Plan.Strategy {
	case render.StrategyMarkup:
		data.SandboxTokens = v.Plan.Sandbox.Tokens()
		data.SrcDoc = v.Plan.SrcDoc
	case render.StrategyImage:
		data.ImageSrc = template.URL(v.Plan.ImageSrc)
		data.Pixelated = v.Plan.Pixelated
		data.Width = v.Plan.Width
		data.Height = v.Plan.Height
	default:
		data.FallbackSrc = template.URL(v.Plan.FallbackURL)
		if data.FallbackSrc == "" {
			data.FallbackSrc = template.URL(render.PlaceholderDataURI)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := previewTmpl.Execute(w, data); err != nil {
		h.logger.Error("preview render failed", "card_id", c.ID(), "error", err)
	}
}
