package reader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetInfo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "hello")

	r := NewLocal()
	info := r.GetInfo(path)

	assert.True(t, info.Exists)
	assert.Equal(t, int64(5), info.Size)
	assert.Greater(t, info.ModTime, int64(0))
}

func TestGetInfoMissing(t *testing.T) {
	r := NewLocal()
	info := r.GetInfo("/nonexistent/file.txt")
	assert.False(t, info.Exists)
	assert.Equal(t, int64(0), info.Size)
}

func TestGetInfoDirectory(t *testing.T) {
	r := NewLocal()
	info := r.GetInfo(t.TempDir())
	assert.False(t, info.Exists, "directories are not indexable files")
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "x")

	r := NewLocal()
	assert.True(t, r.Exists(path))
	assert.False(t, r.Exists(filepath.Join(dir, "missing.txt")))
	assert.False(t, r.Exists(dir))
}

func TestIsDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "x")

	r := NewLocal()
	assert.True(t, r.IsDirectory(dir))
	assert.False(t, r.IsDirectory(path))
	assert.False(t, r.IsDirectory(filepath.Join(dir, "missing")))
}

func TestReadContentText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", "# Title\n\nBody text")

	r := NewLocal()
	content := r.ReadContent(path)

	assert.True(t, content.Success)
	assert.Equal(t, types.CategoryText, content.Category)
	assert.Equal(t, "# Title\n\nBody text", content.Text)
}

func TestReadContentInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binaryish.txt")
	require.NoError(t, os.WriteFile(path, []byte{'o', 'k', 0xff, 0xfe, '!'}, 0o644))

	r := NewLocal()
	content := r.ReadContent(path)

	assert.True(t, content.Success)
	assert.Equal(t, "ok!", content.Text)
}

func TestReadContentMissingFile(t *testing.T) {
	r := NewLocal()
	content := r.ReadContent("/nonexistent/file.txt")

	assert.False(t, content.Success)
	assert.NotEmpty(t, content.Error)
}

func TestReadContentPDFWithoutExtractor(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.pdf", "%PDF-1.4")

	r := NewLocal()
	content := r.ReadContent(path)

	assert.False(t, content.Success)
	assert.Equal(t, types.CategoryPDF, content.Category)
	assert.Contains(t, content.Error, "not configured")
}

func TestReadContentPDFExtractor(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.pdf", "%PDF-1.4")

	r := NewLocal(WithPDFExtractor(func(p string) (string, error) {
		assert.Equal(t, path, p)
		return "extracted pdf text", nil
	}))
	content := r.ReadContent(path)

	assert.True(t, content.Success)
	assert.Equal(t, "extracted pdf text", content.Text)
}

func TestReadContentImageDescriber(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "photo.png", "\x89PNG")

	r := NewLocal(WithImageDescriber(func(string) (string, error) {
		return "a diagram of the system", nil
	}))
	content := r.ReadContent(path)

	assert.True(t, content.Success)
	assert.Equal(t, types.CategoryImage, content.Category)
	assert.Equal(t, "a diagram of the system", content.Text)
}

func TestReadContentExtractorError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.pdf", "%PDF-1.4")

	r := NewLocal(WithPDFExtractor(func(string) (string, error) {
		return "", errors.New("encrypted document")
	}))
	content := r.ReadContent(path)

	assert.False(t, content.Success)
	assert.Contains(t, content.Error, "encrypted document")
}

func TestListFilesNonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x")
	writeFile(t, dir, "b.md", "x")
	writeFile(t, dir, "sub/c.txt", "x")
	writeFile(t, dir, "skip.bin", "x")

	r := NewLocal()
	files, err := r.ListFiles(dir, false, false)
	require.NoError(t, err)

	sort.Strings(files)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.md"),
	}, files)
}

func TestListFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x")
	writeFile(t, dir, "sub/c.txt", "x")
	writeFile(t, dir, "sub/deep/d.pdf", "x")

	r := NewLocal()
	files, err := r.ListFiles(dir, true, false)
	require.NoError(t, err)

	sort.Strings(files)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "c.txt"),
		filepath.Join(dir, "sub", "deep", "d.pdf"),
	}, files)
}

func TestListFilesHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "visible.txt", "x")
	writeFile(t, dir, ".hidden.txt", "x")
	writeFile(t, dir, ".git/config.txt", "x")

	r := NewLocal()

	files, err := r.ListFiles(dir, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "visible.txt")}, files)

	files, err = r.ListFiles(dir, true, true)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestListFilesUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.exe", "x")
	writeFile(t, dir, "b.so", "x")

	r := NewLocal()
	files, err := r.ListFiles(dir, true, false)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestListFilesMissingDir(t *testing.T) {
	r := NewLocal()
	_, err := r.ListFiles("/nonexistent/dir", false, false)
	assert.Error(t, err)

	_, err = r.ListFiles("/nonexistent/dir", true, false)
	assert.Error(t, err)
}
