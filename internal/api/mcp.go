package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"memeshare/internal/auth"
	"memeshare/internal/db"
	"memeshare/internal/models"
)

type mcpSearchArgs struct {
	Query string  `json:"query"`
	Kind  *string `json:"kind,omitempty"`
	Limit *int    `json:"limit,omitempty"`
}

type mcpListArgs struct {
	Page     *int    `json:"page,omitempty"`
	Sort     *string `json:"sort,omitempty"`
	Search   *string `json:"search,omitempty"`
	Category *string `json:"category,omitempty"`
}

type mcpGetArgs struct {
	ID string `json:"id"`
}

// mcpHandler exposes a read-only view of the catalog to MCP clients. Callers
// authenticate with the same bearer token the API issues.
func (s *Server) mcpHandler() http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "memeshare-server",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_search",
		Description: "Search public memes, templates, groups and challenges by title",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpSearchArgs) (*mcp.CallToolResult, any, error) {
		params := db.SearchParams{Query: args.Query}
		if args.Kind != nil {
			kind := strings.TrimSpace(*args.Kind)
			if kind != "" && !models.Contains(models.SearchKinds, kind) {
				return nil, nil, errors.New("kind must be one of " + strings.Join(models.SearchKinds, ", "))
			}
			params.Kind = kind
		}
		if args.Limit != nil {
			params.Limit = *args.Limit
		}
		hits, err := db.SearchCatalog(ctx, s.db, params)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(map[string]any{"results": hits, "count": len(hits)})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_list_memes",
		Description: "List memes, newest first unless another sort is given",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpListArgs) (*mcp.CallToolResult, any, error) {
		p, err := mcpListParams(req, args, models.MemeSorts)
		if err != nil {
			return nil, nil, err
		}
		memes, total, err := db.ListMemes(ctx, s.db, p)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(listEnvelope("memes", memes, p, total))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_list_templates",
		Description: "List public meme templates, optionally filtered by category",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpListArgs) (*mcp.CallToolResult, any, error) {
		p, err := mcpListParams(req, args, models.TemplateSorts)
		if err != nil {
			return nil, nil, err
		}
		templates, total, err := db.ListTemplates(ctx, s.db, p)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(listEnvelope("templates", templates, p, total))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_get_template",
		Description: "Read one template including its text areas",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpGetArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.ID)
		if id == "" {
			return nil, nil, errors.New("id is required")
		}
		tmpl, err := db.GetTemplate(ctx, s.db, id, mcpUserID(req))
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(tmpl)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_stats",
		Description: "Count the rows of every catalog resource",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		stats, err := db.GetCatalogStats(ctx, s.db)
		if err != nil {
			return nil, nil, err
		}
		return jsonToolResult(stats)
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	verify := func(ctx context.Context, token string, req *http.Request) (*mcpauth.TokenInfo, error) {
		claims, err := s.issuer.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
				return nil, mcpauth.ErrInvalidToken
			}
			return nil, err
		}
		user, err := s.lookupUser(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, mcpauth.ErrInvalidToken
			}
			return nil, err
		}
		info := &mcpauth.TokenInfo{
			Scopes: []string{"read"},
			UserID: user.ID,
			Extra:  map[string]any{"username": user.Username},
		}
		if claims.ExpiresAt != nil {
			info.Expiration = claims.ExpiresAt.Time
		}
		return info, nil
	}

	return mcpauth.RequireBearerToken(verify, nil)(handler)
}

func mcpListParams(req *mcp.CallToolRequest, args mcpListArgs, sorts []string) (db.ListParams, error) {
	p := db.ListParams{Page: 1, Limit: models.DefaultPageLimit, Sort: sorts[0], Filters: map[string]string{}, Viewer: mcpUserID(req)}
	if args.Page != nil {
		if *args.Page < 1 {
			return p, errors.New("page must be >= 1")
		}
		p.Page = *args.Page
	}
	if args.Sort != nil && strings.TrimSpace(*args.Sort) != "" {
		sort := strings.TrimSpace(*args.Sort)
		if !models.Contains(sorts, sort) {
			return p, errors.New("sort must be one of " + strings.Join(sorts, ", "))
		}
		p.Sort = sort
	}
	if args.Search != nil {
		p.Search = strings.TrimSpace(*args.Search)
	}
	if args.Category != nil && strings.TrimSpace(*args.Category) != "" {
		p.Filters["category"] = strings.TrimSpace(*args.Category)
	}
	return p, nil
}

func mcpUserID(req *mcp.CallToolRequest) string {
	if req == nil || req.Extra == nil || req.Extra.TokenInfo == nil {
		return ""
	}
	return req.Extra.TokenInfo.UserID
}

func listEnvelope[T any](noun string, items []T, p db.ListParams, total int) map[string]any {
	if items == nil {
		items = []T{}
	}
	meta := p.Meta(total)
	return map[string]any{
		noun:         items,
		"page":       meta.Page,
		"limit":      meta.Limit,
		"total":      meta.Total,
		"totalPages": meta.TotalPages,
	}
}

func jsonToolResult(v any) (*mcp.CallToolResult, any, error) {
	out, err := toJSONText(v)
	if err != nil {
		return nil, nil, err
	}
	return textToolResult(out), nil, nil
}

func textToolResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func toJSONText(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
