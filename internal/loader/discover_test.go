package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.nt", "")
	b := writeFile(t, dir, "nested/deeper/b.nt", "")
	c := writeFile(t, dir, "nested/c.nt", "")
	writeFile(t, dir, "nested/readme.md", "")

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{name: "recursive", patterns: []string{"**/*.nt"}, want: []string{a, c, b}},
		{name: "top level only", patterns: []string{"*.nt"}, want: []string{a}},
		{name: "overlapping patterns", patterns: []string{"nested/*.nt", "**/c.nt"}, want: []string{c}},
		{name: "no match", patterns: []string{"**/*.ttl"}, want: nil},
		{name: "directories excluded", patterns: []string{"nested"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(dir, tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverAbsolutePattern(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.nt", "")

	got, err := Discover("/ignored", []string{filepath.Join(dir, "*.nt")})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, got)
}

func TestDiscoverBadPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), []string{"[unclosed"})
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	root := filepath.FromSlash("/data")
	patterns := []string{"**/*.nt", "extra/*.nq"}

	assert.True(t, Matches(root, filepath.FromSlash("/data/a.nt"), patterns))
	assert.True(t, Matches(root, filepath.FromSlash("/data/x/y/a.nt"), patterns))
	assert.True(t, Matches(root, filepath.FromSlash("/data/extra/b.nq"), patterns))
	assert.False(t, Matches(root, filepath.FromSlash("/data/other/b.nq"), patterns))
	assert.False(t, Matches(root, filepath.FromSlash("/data/a.ttl"), patterns))
}
