package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"memeshare/internal/cli/client"
	"memeshare/internal/cli/config"
	"memeshare/internal/cli/output"
	"memeshare/internal/logging"
	"memeshare/internal/resource"
	"memeshare/internal/session"
	"memeshare/internal/views"
)

var errAborted = errors.New("aborted")

// confirmInput is where y/N answers are read from. Tests swap it.
var confirmInput io.Reader = os.Stdin

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", views.AlertMessage(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "register":
		return cmdRegister(args[1:])
	case "login":
		return cmdLogin(args[1:])
	case "logout":
		return cmdLogout(args[1:])
	case "whoami":
		return cmdWhoAmI(args[1:])
	case "status":
		return cmdStatus(args[1:])
	case "memes":
		return cmdMemes(args[1:])
	case "templates":
		return cmdTemplates(args[1:])
	case "collaborations", "collabs":
		return cmdCollaborations(args[1:])
	case "folders":
		return cmdFolders(args[1:])
	case "groups":
		return cmdGroups(args[1:])
	case "challenges":
		return cmdChallenges(args[1:])
	case "comments":
		return cmdComments(args[1:])
	default:
		return usage()
	}
}

// globalFlags are accepted by every command.
type globalFlags struct {
	format  *string
	quiet   *bool
	verbose *bool
	yes     *bool
	apiURL  *string
}

func addGlobalFlags(fs *flag.FlagSet) globalFlags {
	return globalFlags{
		format:  fs.String("format", "", "Output format: json|table|plain|md|quiet"),
		quiet:   fs.Bool("quiet", false, "IDs only"),
		verbose: fs.Bool("verbose", false, "Debug logging to stderr"),
		yes:     fs.Bool("yes", false, "Skip confirmation prompts"),
		apiURL:  fs.String("api-url", "", "API base URL (overrides config and "+config.EnvAPIURL+")"),
	}
}

// listFlags are the paging and filtering flags of list commands.
type listFlags struct {
	page   *int
	limit  *int
	sort   *string
	search *string
}

func addListFlags(fs *flag.FlagSet) listFlags {
	return listFlags{
		page:   fs.Int("page", 1, "Page number"),
		limit:  fs.Int("limit", 0, "Page size (default 12)"),
		sort:   fs.String("sort", "", "Sort order"),
		search: fs.String("search", "", "Search text"),
	}
}

func (l listFlags) query(filters map[string]string) resource.Query {
	return resource.Query{
		Page:    *l.page,
		Limit:   *l.limit,
		Sort:    strings.TrimSpace(*l.sort),
		Search:  strings.TrimSpace(*l.search),
		Filters: filters,
	}
}

// app is one CLI invocation: config, session, logger and client.
type app struct {
	cfg     *config.Config
	path    string
	session *session.Session
	client  *client.Client
	logger  *zap.Logger
	flags   globalFlags
}

func newApp(g globalFlags) (*app, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.CLILevel(*g.verbose), false)
	if err != nil {
		return nil, err
	}
	srv, _ := cfg.Default()
	sess := session.New(srv.Token, srv.User, &config.FileStore{Path: path, Config: cfg}, logger)
	cl := client.New(config.BaseURL(cfg, *g.apiURL), sess, client.WithLogger(logger))
	return &app{cfg: cfg, path: path, session: sess, client: cl, logger: logger, flags: g}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) viewOptions(limit int) []views.Option {
	return []views.Option{views.WithLogger(a.logger), views.WithPageSize(limit)}
}

// requireLogin fails early for commands the server would reject anyway.
func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return errors.New("not logged in. run: memes login <email>")
	}
	return nil
}

// rememberServer records the base URL in use so later commands talk to the
// same server as the one that issued the token.
func (a *app) rememberServer() {
	name := a.cfg.DefaultServer
	srv := a.cfg.Servers[name]
	srv.URL = a.client.BaseURL()
	a.cfg.Servers[name] = srv
}

func (a *app) format() string {
	f := strings.TrimSpace(*a.flags.format)
	if f == "" && output.DefaultFormat() == "table" {
		f = a.cfg.Preference("default_format")
	}
	return f
}

// print renders v, which is a list envelope or a single resource.
func (a *app) print(v any) error {
	payload, err := toPayload(v)
	if err != nil {
		return err
	}
	return output.Print(payload, a.format(), *a.flags.quiet)
}

func (a *app) confirm(format string, args ...any) error {
	if *a.flags.yes {
		return nil
	}
	return confirm(fmt.Sprintf(format, args...))
}

func confirm(prompt string) error {
	if f, ok := confirmInput.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return errors.New("refusing to continue without --yes when stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(confirmInput).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}

// loadList seeds c from the list flags, loads one page and returns the list
// envelope keyed by noun.
func loadList[T any](ctx context.Context, c *resource.Controller[T], lf listFlags, noun string, filters map[string]string) (map[string]any, error) {
	defer c.Close()
	if *lf.page < 1 {
		return nil, fmt.Errorf("%w: got %d", resource.ErrInvalidPage, *lf.page)
	}
	if err := c.Seed(lf.query(filters)); err != nil {
		return nil, err
	}
	c.Load(ctx)
	c.Wait()
	return listEnvelope(noun, c.State())
}

func listEnvelope[T any](noun string, st resource.State[T]) (map[string]any, error) {
	if st.Err != nil {
		return nil, st.Err
	}
	items := st.Items
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		noun:         items,
		"page":       st.Page,
		"limit":      st.Query.Limit,
		"total":      st.Total,
		"totalPages": st.TotalPages,
	}, nil
}

func toPayload(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// openCommand parses a subcommand's flags, checks the positional count
// (maxArgs < 0 means unbounded) and opens the app.
func openCommand(fs *flag.FlagSet, g globalFlags, args []string, minArgs, maxArgs int, usageLine string) (*app, []string, error) {
	positionals, err := parseInterspersedFlags(fs, args)
	if err != nil {
		return nil, nil, err
	}
	if len(positionals) < minArgs || (maxArgs >= 0 && len(positionals) > maxArgs) {
		return nil, nil, errors.New("usage: " + usageLine)
	}
	a, err := newApp(g)
	if err != nil {
		return nil, nil, err
	}
	return a, positionals, nil
}

// subcommand splits "<sub> args..." for resource commands.
func subcommand(args []string, usageLine string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errors.New(usageLine)
	}
	return args[0], args[1:], nil
}

type multiStringFlag struct {
	values []string
}

func (m *multiStringFlag) String() string {
	return strings.Join(m.values, ",")
}

func (m *multiStringFlag) Set(value string) error {
	m.values = append(m.values, value)
	return nil
}

func parseCSVUnique(raw []string) []string {
	out := make([]string, 0)
	seen := map[string]struct{}{}
	for _, v := range raw {
		for _, p := range strings.Split(v, ",") {
			item := strings.TrimSpace(p)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseInterspersedFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	positionals := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := strings.TrimSpace(args[i])
		if arg == "" {
			continue
		}
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}

		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == "" {
			positionals = append(positionals, arg)
			continue
		}
		name := trimmed
		value := ""
		hasValue := false
		if idx := strings.Index(trimmed, "="); idx >= 0 {
			name = trimmed[:idx]
			value = trimmed[idx+1:]
			hasValue = true
		}

		f := fs.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("flag provided but not defined: -%s", name)
		}
		isBool := false
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			isBool = true
		}

		if !hasValue {
			if isBool {
				value = "true"
			} else {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("flag needs an argument: -%s", name)
				}
				i++
				value = args[i]
			}
		}

		if err := fs.Set(name, value); err != nil {
			return nil, err
		}
	}
	return positionals, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func usage() error {
	return errors.New(`usage:
  memes register <username> <email> [--password p]
  memes login <email> [--password p]
  memes logout
  memes whoami
  memes status
  memes memes list [--page n] [--sort newest|popular|trending] [--search s] [--owner user-id]
  memes memes show <meme-id>
  memes memes create --title t --image-url url
  memes memes like <meme-id>
  memes memes delete <meme-id> [--yes]
  memes templates list [--page n] [--sort newest|popular|most_used|top_rated] [--search s] [--category c]
  memes templates favorites [--page n] [--sort s]
  memes templates show <template-id>
  memes templates upload <image-file> --name n --category c [--description d] [--public]
  memes templates favorite <template-id>
  memes templates unfavorite <template-id>
  memes templates download <template-id> [--out path]
  memes templates use <template-id>
  memes templates rate <template-id> <1-5>
  memes templates delete <template-id> [--yes]
  memes collaborations list [--page n] [--sort s] [--search s] [--type t] [--status s]
  memes collaborations show <collaboration-id>
  memes collaborations create --title t --type meme|template|challenge [--public] [--invite user:role]
  memes collaborations invites
  memes collaborations accept <collaboration-id>
  memes collaborations decline <collaboration-id>
  memes collaborations publish <collaboration-id>
  memes collaborations status <collaboration-id> <draft|active|reviewing|completed>
  memes collaborations delete <collaboration-id> [--yes]
  memes folders list [--page n] [--sort s] [--search s]
  memes folders show <folder-id>
  memes folders create <name> [--color #hex] [--icon i] [--description d] [--private]
  memes folders add <folder-id> <meme-id>...
  memes folders remove <folder-id> <meme-id> [--yes]
  memes folders available <folder-id> [--cap n]
  memes folders delete <folder-id> [--yes]
  memes groups list [--page n] [--sort s] [--search s] [--category c]
  memes groups create <name> --category c [--description d] [--private]
  memes groups join <group-id>
  memes groups leave <group-id>
  memes groups delete <group-id> [--yes]
  memes challenges list [--page n] [--sort s] [--search s] [--category c] [--status s]
  memes challenges create --title t --description d --category c --start t --end t [--rules r]
  memes challenges join <challenge-id>
  memes challenges delete <challenge-id> [--yes]
  memes comments list <meme-id> [--page n] [--sort newest|oldest|popular]
  memes comments replies <meme-id> <comment-id> [--page n]
  memes comments post <meme-id> <text>
  memes comments reply <meme-id> <comment-id> <text>
  memes comments like <meme-id> <comment-id>
  memes comments edit <meme-id> <comment-id> <text>
  memes comments report <meme-id> <comment-id> --reason spam|harassment|inappropriate|other [--details d]
  memes comments delete <meme-id> <comment-id> [--yes]

every command accepts --format json|table|plain|md|quiet, --quiet, --verbose, --yes and --api-url`)
}
