package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juev/sedit-lsp/internal/history"
)

func TestGenerateTranscript_ProducesOneLinePerEvent(t *testing.T) {
	content := GenerateTranscript(100)

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	assert.Len(t, lines, 100)
}

func TestGenerateTranscript_ParsesCleanly(t *testing.T) {
	messages, errs := history.ParseTranscript(GenerateTranscript(50))

	assert.Empty(t, errs)
	require.Len(t, messages, 50)
	assert.Equal(t, "$event0", messages[0].ID)
	assert.Equal(t, Users[0], messages[49].Sender)
}

func TestGenerateTranscript_MixesEventKinds(t *testing.T) {
	messages, _ := history.ParseTranscript(GenerateTranscript(22))

	var text, notices, reactions int
	for _, msg := range messages {
		switch {
		case msg.IsText():
			text++
		case msg.Type == "m.reaction":
			reactions++
		default:
			notices++
		}
	}
	assert.Equal(t, 2, reactions)
	assert.Equal(t, 3, notices)
	assert.Equal(t, 17, text)
	assert.Equal(t, "org.matrix.custom.html", messages[0].Content.Extra["format"])
}

func TestWriteTranscript(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteTranscript(dir, "room.jsonl", 10)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "room.jsonl"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, GenerateTranscript(10), string(data))
}

func TestWriteTranscript_MissingDir(t *testing.T) {
	_, err := WriteTranscript(filepath.Join(t.TempDir(), "missing"), "room.jsonl", 1)
	assert.Error(t, err)
}
