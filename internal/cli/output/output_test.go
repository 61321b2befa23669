package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = prev })
	return &buf
}

func memesPayload() map[string]any {
	return map[string]any{
		"memes": []any{
			map[string]any{
				"id":      "m1",
				"title":   "Distracted cat",
				"owner":   map[string]any{"username": "alice"},
				"stats":   map[string]any{"likes": float64(3), "views": float64(10)},
				"created": "2026-01-01T00:00:00Z",
			},
		},
		"page":       float64(1),
		"total":      float64(1),
		"totalPages": float64(1),
	}
}

func TestPrintTableReadsNestedColumns(t *testing.T) {
	buf := capture(t)
	require.NoError(t, Print(memesPayload(), "table", false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID\tTITLE\tOWNER\tLIKES\tVIEWS\tCREATED", lines[0])
	assert.Equal(t, "m1\tDistracted cat\talice\t3\t10\t2026-01-01T00:00:00Z", lines[1])
	assert.Equal(t, "page 1 of 1 (1 total)", lines[2])
}

func TestPrintQuietListsIDs(t *testing.T) {
	buf := capture(t)
	payload := map[string]any{"invites": []any{
		map[string]any{"collaborationId": "c1", "title": "Remix"},
		map[string]any{"collaborationId": "c2", "title": "Duet"},
	}}
	require.NoError(t, Print(payload, "json", true))
	assert.Equal(t, "c1\nc2\n", buf.String())
}

func TestPrintSingleResource(t *testing.T) {
	buf := capture(t)
	require.NoError(t, Print(map[string]any{"id": "t1", "name": "Drake"}, "plain", false))
	assert.Equal(t, "t1 Drake\n", buf.String())

	buf.Reset()
	require.NoError(t, Print(map[string]any{"id": "t1", "name": "Drake"}, "md", false))
	assert.Equal(t, "- `t1` **Drake**\n", buf.String())
}

func TestPrintMarkdownNamesOwner(t *testing.T) {
	buf := capture(t)
	require.NoError(t, Print(memesPayload(), "md", false))
	assert.Equal(t, "- `m1` **Distracted cat** by alice\n", buf.String())
}

func TestPrintRejectsUnknownFormat(t *testing.T) {
	capture(t)
	assert.EqualError(t, Print(memesPayload(), "yaml", false), "invalid --format value")
}

func TestStrFormatsNumbers(t *testing.T) {
	assert.Equal(t, "4", str(float64(4)))
	assert.Equal(t, "4.5", str(4.5))
	assert.Equal(t, "", str(nil))
	assert.Equal(t, "true", str(true))
}
