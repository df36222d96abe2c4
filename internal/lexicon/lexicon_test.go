package lexicon

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestLoadStopwords(t *testing.T) {
	t.Parallel()

	t.Run("single file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "StopWords_Generic.txt", []byte("the\nand\n"))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"the": {}, "and": {}}, set)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", []byte("  THE \r\n\n\tAnd\n   \n"))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"the": {}, "and": {}}, set)
	})

	t.Run("merges files and deduplicates", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", []byte("the\nof\n"))
		writeFile(t, dir, "b.txt", []byte("OF\nsmith\n"))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Len(t, set, 3)
		assert.Contains(t, set, "smith")
	})

	t.Run("tolerates latin-1 bytes", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		// "café" with é encoded as a single 0xE9 byte, invalid as UTF-8.
		writeFile(t, dir, "latin.txt", []byte{'C', 'a', 'f', 0xC9, '\n'})

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Contains(t, set, "café")
	})

	t.Run("skips subdirectories", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", []byte("the\n"))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Len(t, set, 1)
	})

	t.Run("follows symlinked files", func(t *testing.T) {
		t.Parallel()

		target := filepath.Join(t.TempDir(), "generic.txt")
		require.NoError(t, os.WriteFile(target, []byte("the\nand\n"), 0o644))
		dir := t.TempDir()
		require.NoError(t, os.Symlink(target, filepath.Join(dir, "StopWords_Generic.txt")))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"the": {}, "and": {}}, set)
	})

	t.Run("skips symlinked directories", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "a.txt", []byte("the\n"))
		require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(dir, "linked")))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Len(t, set, 1)
	})

	t.Run("carriage return line endings", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "mac.txt", []byte("The\rAND\r"))
		writeFile(t, dir, "mixed.txt", []byte("of\r\nsmith\rjones\nlast"))

		set, err := LoadStopwords(dir)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{
			"the": {}, "and": {}, "of": {}, "smith": {}, "jones": {}, "last": {},
		}, set)
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		t.Parallel()

		_, err := LoadStopwords(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})
}

func TestLoadWords(t *testing.T) {
	t.Parallel()

	t.Run("reads one word per line", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, PositiveFile, []byte("Love\nbest\n\n"))

		set, err := LoadWords(filepath.Join(dir, PositiveFile))
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"love": {}, "best": {}}, set)
	})

	t.Run("carriage return line endings", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, NegativeFile, []byte("Bad\rworse\r\nworst"))

		set, err := LoadWords(filepath.Join(dir, NegativeFile))
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"bad": {}, "worse": {}, "worst": {}}, set)
	})

	t.Run("missing file returns empty set and warning", func(t *testing.T) {
		t.Parallel()

		set, err := LoadWords(filepath.Join(t.TempDir(), PositiveFile))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissing))
		assert.NotNil(t, set)
		assert.Empty(t, set)
	})
}

func TestScanAnyLines(t *testing.T) {
	t.Parallel()

	for input, want := range map[string][]string{
		"":           nil,
		"a":          {"a"},
		"a\nb\n":     {"a", "b"},
		"a\r\nb\r\n": {"a", "b"},
		"a\rb\r":     {"a", "b"},
		"a\r\r\nb":   {"a", "", "b"},
		"a\n\rb":     {"a", "", "b"},
		"\r\n":       {""},
	} {
		sc := bufio.NewScanner(strings.NewReader(input))
		sc.Split(scanAnyLines)
		var got []string
		for sc.Scan() {
			got = append(got, sc.Text())
		}
		require.NoError(t, sc.Err())
		assert.Equal(t, want, got, "%q", input)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads all three sets", func(t *testing.T) {
		t.Parallel()

		stopDir := t.TempDir()
		dictDir := t.TempDir()
		writeFile(t, stopDir, "generic.txt", []byte("the\n"))
		writeFile(t, dictDir, PositiveFile, []byte("good\n"))
		writeFile(t, dictDir, NegativeFile, []byte("bad\n"))

		set, warnings, err := Load(stopDir, dictDir)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.True(t, set.IsStopword("the"))
		assert.True(t, set.IsPositive("good"))
		assert.True(t, set.IsNegative("bad"))
		assert.False(t, set.IsPositive("bad"))
	})

	t.Run("missing positive dictionary degrades to empty set", func(t *testing.T) {
		t.Parallel()

		stopDir := t.TempDir()
		dictDir := t.TempDir()
		writeFile(t, dictDir, NegativeFile, []byte("bad\n"))

		set, warnings, err := Load(stopDir, dictDir)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.ErrorIs(t, warnings[0], ErrMissing)
		assert.Empty(t, set.Positive)
		assert.True(t, set.IsNegative("bad"))
	})

	t.Run("missing stopwords directory is fatal", func(t *testing.T) {
		t.Parallel()

		_, _, err := Load(filepath.Join(t.TempDir(), "missing"), t.TempDir())
		require.Error(t, err)
	})
}

func TestNewSet(t *testing.T) {
	t.Parallel()

	set := NewSet([]string{" The "}, []string{"LOVE", ""}, nil)
	assert.True(t, set.IsStopword("the"))
	assert.True(t, set.IsPositive("love"))
	assert.Len(t, set.Positive, 1)
	assert.Empty(t, set.Negative)

	stop, pos, neg := set.Len()
	assert.Equal(t, []int{1, 1, 0}, []int{stop, pos, neg})

	var empty *Set
	stop, _, _ = empty.Len()
	assert.Zero(t, stop)
}
