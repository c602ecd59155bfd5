package words_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/scythe504/wordrace-backend/internal/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFileSource(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{
			name:    "json dictionary",
			file:    "words_dictionary.json",
			content: `{"apple": 1, "Pear": 1}`,
			want:    []string{"apple", "pear"},
		},
		{
			name:    "json array",
			file:    "words.json",
			content: `["Apple", " kiwi ", "apple"]`,
			want:    []string{"apple", "kiwi"},
		},
		{
			name:    "csv with counts",
			file:    "words.csv",
			content: "apple,10\nbanana,3\nlonely\n",
			want:    []string{"apple", "banana", "lonely"},
		},
		{
			name:    "plain lines",
			file:    "words.txt",
			content: "apple\n\n  Fig  \n",
			want:    []string{"apple", "fig"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := words.NewFileSource(writeFile(t, tt.file, tt.content))
			got, err := src.Load(context.Background())
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestFileSourceErrors(t *testing.T) {
	_, err := words.NewFileSource(filepath.Join(t.TempDir(), "missing.txt")).Load(context.Background())
	assert.Error(t, err)

	bad := writeFile(t, "bad.json", `{"apple":`)
	_, err = words.NewFileSource(bad).Load(context.Background())
	assert.Error(t, err)
}
