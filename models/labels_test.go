package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "unix line endings",
			input:    "cat\ndog\nbird\n",
			expected: []string{"cat", "dog", "bird"},
		},
		{
			name:     "windows line endings",
			input:    "cat\r\ndog\r\n",
			expected: []string{"cat", "dog"},
		},
		{
			name:     "no trailing newline",
			input:    "cat\ndog",
			expected: []string{"cat", "dog"},
		},
		{
			name:     "inner blank line keeps indices aligned",
			input:    "cat\n\ndog\n\n\n",
			expected: []string{"cat", "", "dog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := ParseLabels(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, labels.Names())
			assert.Equal(t, len(tt.expected), labels.Len())
		})
	}
}

func TestParseLabelsEmpty(t *testing.T) {
	_, err := ParseLabels(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestLabelLookup(t *testing.T) {
	labels := NewLabels("cat", "dog")

	assert.Equal(t, "cat", labels.Label(0))
	assert.Equal(t, "dog", labels.Label(1))
	assert.Equal(t, UnknownLabel, labels.Label(2))
	assert.Equal(t, UnknownLabel, labels.Label(-1))

	idx, ok := labels.Index("dog")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = labels.Index("horse")
	assert.False(t, ok)
}

func TestNilLabels(t *testing.T) {
	var labels *Labels

	assert.Equal(t, UnknownLabel, labels.Label(0))
	assert.Equal(t, 0, labels.Len())
	assert.Nil(t, labels.Names())
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labelmap.txt")
	require.NoError(t, os.WriteFile(path, []byte("person\nbicycle\ncar\n"), 0o644))

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, 3, labels.Len())
	assert.Equal(t, "car", labels.Label(2))

	_, err = LoadLabels(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
