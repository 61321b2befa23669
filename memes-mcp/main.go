package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"memeshare/internal/cli/client"
	"memeshare/internal/cli/config"
	"memeshare/internal/logging"
	"memeshare/internal/models"
	"memeshare/internal/resource"
	"memeshare/internal/session"
	"memeshare/internal/views"
)

const version = "0.1.0"

type listArgs struct {
	Page   *int    `json:"page,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
	Sort   *string `json:"sort,omitempty"`
	Search *string `json:"search,omitempty"`
	Filter *string `json:"filter,omitempty" jsonschema:"owner id for memes, category for templates"`
}

type commentsArgs struct {
	MemeID string `json:"meme_id"`
	Page   *int   `json:"page,omitempty"`
}

type commentArgs struct {
	MemeID   string  `json:"meme_id"`
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

type idArgs struct {
	ID string `json:"id"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "memes-mcp:", err)
		os.Exit(1)
	}
}

// run serves MCP over stdin/stdout using the CLI's stored session. Logs go to
// stderr since stdout carries the protocol.
func run() error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}
	baseURL := config.BaseURL(cfg, "")
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return fmt.Errorf("invalid %s: %w", config.EnvAPIURL, err)
	}
	logger, err := logging.New(logging.CLILevel(os.Getenv("MEMESHARE_MCP_DEBUG") != ""), false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	srv, _ := cfg.Default()
	sess := session.New(srv.Token, srv.User, &config.FileStore{Path: path, Config: cfg}, logger)
	cl := client.New(baseURL, sess, client.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("memes-mcp ready", zap.String("api", baseURL), zap.Bool("authenticated", sess.Authenticated()))
	return newServer(cl, logger).Run(ctx, &mcp.StdioTransport{})
}

func newServer(cl *client.Client, logger *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "memes-mcp",
		Version: version,
	}, nil)
	opts := []views.Option{views.WithLogger(logger)}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_list_memes",
		Description: "List memes; filter narrows to one owner id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listArgs) (*mcp.CallToolResult, any, error) {
		v := views.NewMemes(cl, pageSize(args.Limit, opts)...)
		return listResult(ctx, v.List, args, "memes", "owner")
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_list_templates",
		Description: "List meme templates; filter narrows to one category",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listArgs) (*mcp.CallToolResult, any, error) {
		v := views.NewTemplates(cl, pageSize(args.Limit, opts)...)
		return listResult(ctx, v.List, args, "templates", "category")
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_list_comments",
		Description: "List top-level comments on a meme, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args commentsArgs) (*mcp.CallToolResult, any, error) {
		memeID := strings.TrimSpace(args.MemeID)
		if memeID == "" {
			return nil, nil, errors.New("meme_id is required")
		}
		v := views.NewComments(cl, memeID, opts...)
		return listResult(ctx, v.List, listArgs{Page: args.Page}, "comments", "")
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_comment",
		Description: "Comment on a meme, or reply to a comment when parent_id is set",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args commentArgs) (*mcp.CallToolResult, any, error) {
		memeID := strings.TrimSpace(args.MemeID)
		if memeID == "" {
			return nil, nil, errors.New("meme_id is required")
		}
		v := views.NewComments(cl, memeID, opts...)
		defer v.List.Close()
		var (
			created models.Comment
			err     error
		)
		if args.ParentID != nil && strings.TrimSpace(*args.ParentID) != "" {
			created, err = v.Reply(ctx, views.NewSubmitter(), strings.TrimSpace(*args.ParentID), args.Content, nil)
		} else {
			created, err = v.Post(ctx, views.NewSubmitter(), args.Content, nil)
		}
		if err != nil {
			return nil, nil, errors.New(views.AlertMessage(err))
		}
		return jsonResult(created)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "memeshare_like_meme",
		Description: "Like a meme",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args idArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.ID)
		if id == "" {
			return nil, nil, errors.New("id is required")
		}
		v := views.NewMemes(cl, opts...)
		defer v.List.Close()
		liked, err := v.Like(ctx, id)
		if err != nil {
			return nil, nil, errors.New(views.AlertMessage(err))
		}
		return jsonResult(liked)
	})

	return server
}

func pageSize(limit *int, opts []views.Option) []views.Option {
	if limit == nil {
		return opts
	}
	return append(append([]views.Option{}, opts...), views.WithPageSize(*limit))
}

func listResult[T any](ctx context.Context, c *resource.Controller[T], args listArgs, noun, filterKey string) (*mcp.CallToolResult, any, error) {
	defer c.Close()
	q := resource.Query{Filters: map[string]string{}}
	if args.Page != nil {
		if *args.Page < 1 {
			return nil, nil, fmt.Errorf("%w: got %d", resource.ErrInvalidPage, *args.Page)
		}
		q.Page = *args.Page
	}
	if args.Sort != nil {
		q.Sort = *args.Sort
	}
	if args.Search != nil {
		q.Search = *args.Search
	}
	if args.Filter != nil && filterKey != "" {
		q.Filters[filterKey] = *args.Filter
	}
	if err := c.Seed(q); err != nil {
		return nil, nil, err
	}
	c.Load(ctx)
	c.Wait()
	st := c.State()
	if st.Err != nil {
		return nil, nil, errors.New(views.AlertMessage(st.Err))
	}
	items := st.Items
	if items == nil {
		items = []T{}
	}
	return jsonResult(map[string]any{
		noun:         items,
		"page":       st.Page,
		"total":      st.Total,
		"totalPages": st.TotalPages,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}
