package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Stdout is where Print writes. Tests swap it.
var Stdout io.Writer = os.Stdout

func DefaultFormat() string {
	if f, ok := Stdout.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "table"
	}
	return "json"
}

// Print renders a list envelope ({"memes": [...], "page": n, ...}) or a single
// resource in the requested format.
func Print(payload map[string]any, format string, quiet bool) error {
	if quiet {
		format = "quiet"
	}
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}

	switch format {
	case "json":
		return printJSON(payload)
	case "table":
		return printTable(payload)
	case "plain":
		return printPlain(payload)
	case "md":
		return printMarkdown(payload)
	case "quiet":
		return printQuiet(payload)
	default:
		return errors.New("invalid --format value")
	}
}

// column reads one cell from a row; dotted keys walk nested objects.
type column struct {
	header string
	key    string
}

type listKind struct {
	key     string
	columns []column
	plain   []string
	title   string
}

var listKinds = []listKind{
	{
		key:     "memes",
		columns: []column{{"ID", "id"}, {"TITLE", "title"}, {"OWNER", "owner.username"}, {"LIKES", "stats.likes"}, {"VIEWS", "stats.views"}, {"CREATED", "created"}},
		plain:   []string{"id", "title", "owner.username"},
		title:   "title",
	},
	{
		key:     "templates",
		columns: []column{{"ID", "id"}, {"NAME", "name"}, {"CATEGORY", "category"}, {"FAVORITES", "stats.favorites"}, {"USES", "stats.uses"}, {"RATING", "stats.rating"}, {"FAV", "isFavorited"}},
		plain:   []string{"id", "name", "category"},
		title:   "name",
	},
	{
		key:     "collaborations",
		columns: []column{{"ID", "id"}, {"TITLE", "title"}, {"TYPE", "type"}, {"STATUS", "status"}, {"OWNER", "owner.username"}, {"CREATED", "created"}},
		plain:   []string{"id", "status", "title"},
		title:   "title",
	},
	{
		key:     "folders",
		columns: []column{{"ID", "id"}, {"NAME", "name"}, {"MEMES", "memeCount"}, {"PRIVATE", "isPrivate"}, {"CREATED", "created"}},
		plain:   []string{"id", "name", "memeCount"},
		title:   "name",
	},
	{
		key:     "groups",
		columns: []column{{"ID", "id"}, {"NAME", "name"}, {"CATEGORY", "category"}, {"MEMBERS", "stats.members"}, {"MEMBER", "isMember"}},
		plain:   []string{"id", "name", "category"},
		title:   "name",
	},
	{
		key:     "challenges",
		columns: []column{{"ID", "id"}, {"TITLE", "title"}, {"CATEGORY", "category"}, {"PARTICIPANTS", "stats.participants"}, {"ENDS", "endDate"}, {"JOINED", "isJoined"}},
		plain:   []string{"id", "title", "endDate"},
		title:   "title",
	},
	{
		key:     "comments",
		columns: []column{{"ID", "id"}, {"AUTHOR", "author.username"}, {"LIKES", "stats.likes"}, {"REPLIES", "stats.replies"}, {"CONTENT", "content"}},
		plain:   []string{"id", "author.username", "content"},
		title:   "content",
	},
	{
		key:     "invites",
		columns: []column{{"COLLABORATION", "collaborationId"}, {"TITLE", "title"}, {"ROLE", "role"}, {"FROM", "invitedBy.username"}, {"CREATED", "created"}},
		plain:   []string{"collaborationId", "role", "title"},
		title:   "title",
	},
	{
		key:     "results",
		columns: []column{{"KIND", "kind"}, {"ID", "id"}, {"TITLE", "title"}, {"OWNER", "owner"}, {"CREATED", "created"}},
		plain:   []string{"kind", "id", "title"},
		title:   "title",
	},
}

func findKind(payload map[string]any) (listKind, bool) {
	for _, k := range listKinds {
		if hasKey(payload, k.key) {
			return k, true
		}
	}
	return listKind{}, false
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(Stdout, string(b))
	return nil
}

func printTable(payload map[string]any) error {
	kind, ok := findKind(payload)
	if !ok {
		return printJSON(payload)
	}
	headers := make([]string, 0, len(kind.columns))
	for _, c := range kind.columns {
		headers = append(headers, c.header)
	}
	fmt.Fprintln(Stdout, strings.Join(headers, "\t"))
	for _, row := range toObjectSlice(payload[kind.key]) {
		cells := make([]string, 0, len(kind.columns))
		for _, c := range kind.columns {
			cells = append(cells, str(lookup(row, c.key)))
		}
		fmt.Fprintln(Stdout, strings.Join(cells, "\t"))
	}
	printPageFooter(payload)
	return nil
}

func printPlain(payload map[string]any) error {
	kind, ok := findKind(payload)
	if !ok {
		if hasKey(payload, "id") {
			fmt.Fprintf(Stdout, "%s %s\n", str(payload["id"]), firstOf(payload, "title", "name", "content", "username"))
			return nil
		}
		return printJSON(payload)
	}
	for _, row := range toObjectSlice(payload[kind.key]) {
		cells := make([]string, 0, len(kind.plain))
		for _, key := range kind.plain {
			cells = append(cells, str(lookup(row, key)))
		}
		fmt.Fprintln(Stdout, strings.Join(cells, " "))
	}
	return nil
}

func printMarkdown(payload map[string]any) error {
	kind, ok := findKind(payload)
	if !ok {
		if hasKey(payload, "id") {
			fmt.Fprintf(Stdout, "- `%s` **%s**\n", str(payload["id"]), firstOf(payload, "title", "name", "content", "username"))
			return nil
		}
		return printJSON(payload)
	}
	id := kind.plain[0]
	for _, row := range toObjectSlice(payload[kind.key]) {
		line := fmt.Sprintf("- `%s` **%s**", str(lookup(row, id)), str(lookup(row, kind.title)))
		if owner := firstOf(row, "owner.username", "author.username", "invitedBy.username"); owner != "" {
			line += " by " + owner
		}
		fmt.Fprintln(Stdout, line)
	}
	return nil
}

func printQuiet(payload map[string]any) error {
	kind, ok := findKind(payload)
	if !ok {
		if id, ok := payload["id"]; ok {
			fmt.Fprintln(Stdout, str(id))
			return nil
		}
		return printJSON(payload)
	}
	id := kind.plain[0]
	for _, row := range toObjectSlice(payload[kind.key]) {
		fmt.Fprintln(Stdout, str(lookup(row, id)))
	}
	return nil
}

func printPageFooter(payload map[string]any) {
	if !hasKey(payload, "totalPages") {
		return
	}
	fmt.Fprintf(Stdout, "page %s of %s (%s total)\n", str(payload["page"]), str(payload["totalPages"]), str(payload["total"]))
}

func firstOf(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := str(lookup(row, k)); v != "" {
			return v
		}
	}
	return ""
}

func lookup(row map[string]any, key string) any {
	var cur any = row
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func toObjectSlice(v any) []map[string]any {
	in, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(in))
	for _, item := range in {
		if row, ok := item.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.1f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
