package card

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stampworks/stampcard/kit"
)

// RegisterMCP registers all card tools on an MCP server.
func (r *Registry) RegisterMCP(srv *mcp.Server) {
	r.registerCreate(srv)
	r.registerView(srv)
	r.registerSetStamp(srv)
	r.registerReload(srv)
	r.registerSelectDispenser(srv)
	r.registerFlip(srv)
	r.registerModal(srv)
	r.registerCopyAddress(srv)
	r.registerDelete(srv)
}

// wrapTool applies the shared endpoint middleware to an MCP tool endpoint.
func (r *Registry) wrapTool(endpoint kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Instrument(r.logger))(endpoint)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decodeInto[T any]() func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p T
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}
}

func (r *Registry) registerCreate(srv *mcp.Server) {
	type req struct {
		StampID string `json:"stamp_id"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_create",
		Description: "Create a stamp card, optionally loading a stamp right away",
		InputSchema: inputSchema(map[string]any{
			"stamp_id": map[string]any{"type": "string", "description": "Stamp identifier to load (optional)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Create(ctx, p.StampID)
		if err != nil {
			return nil, err
		}
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerView(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_view",
		Description: "Return the current view state of a stamp card",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
		}, []string{"card_id"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerSetStamp(srv *mcp.Server) {
	type req struct {
		CardID  string `json:"card_id"`
		StampID string `json:"stamp_id"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_set_stamp",
		Description: "Switch a card to a new stamp identifier and start loading it",
		InputSchema: inputSchema(map[string]any{
			"card_id":  map[string]any{"type": "string", "description": "Card ID"},
			"stamp_id": map[string]any{"type": "string", "description": "Stamp identifier"},
		}, []string{"card_id", "stamp_id"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		c.SetStamp(context.WithoutCancel(ctx), p.StampID)
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerReload(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_reload",
		Description: "Retry loading the card's current stamp after a failure",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
		}, []string{"card_id"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		c.Reload(context.WithoutCancel(ctx))
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerSelectDispenser(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
		Source string `json:"source"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_select_dispenser",
		Description: "Select a dispenser offer on a loaded card",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
			"source":  map[string]any{"type": "string", "description": "Dispenser source name"},
		}, []string{"card_id", "source"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		if err := c.SelectOffer(ctx, p.Source); err != nil {
			return nil, err
		}
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerFlip(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
		Action string `json:"action"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_flip",
		Description: "Flip a card: action is tap, buy, or back",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
			"action":  map[string]any{"type": "string", "description": "tap, buy, or back"},
		}, []string{"card_id", "action"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		switch p.Action {
		case "buy":
			c.Buy()
		case "back":
			c.Back()
		default:
			c.Tap(false)
		}
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerModal(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
		Open   bool   `json:"open"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_modal",
		Description: "Open or close the purchase modal on a card",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
			"open":    map[string]any{"type": "boolean", "description": "true to open, false to close"},
		}, []string{"card_id", "open"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		if p.Open {
			if err := c.OpenModal(); err != nil {
				return nil, err
			}
		} else {
			c.CloseModal()
		}
		return c.Snapshot(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerCopyAddress(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
		Text   string `json:"text"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_copy_address",
		Description: "Copy a dispenser address to the clipboard and record an acknowledgement",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
			"text":    map[string]any{"type": "string", "description": "Text to copy"},
		}, []string{"card_id", "text"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		c, err := r.Get(p.CardID)
		if err != nil {
			return nil, err
		}
		return c.Copy(ctx, p.Text), nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}

func (r *Registry) registerDelete(srv *mcp.Server) {
	type req struct {
		CardID string `json:"card_id"`
	}

	tool := &mcp.Tool{
		Name:        "stamp_card_delete",
		Description: "Delete a card and abandon its in-flight work",
		InputSchema: inputSchema(map[string]any{
			"card_id": map[string]any{"type": "string", "description": "Card ID"},
		}, []string{"card_id"}),
	}

	endpoint := func(ctx context.Context, in any) (any, error) {
		p := in.(*req)
		if err := r.Delete(p.CardID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted"}, nil
	}

	kit.RegisterMCPTool(srv, tool, r.wrapTool(endpoint), decodeInto[req]())
}
