package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/filecontext-mcp/pkg/types"
)

// Info describes a file on disk. A stat failure yields Exists=false rather
// than an error, mirroring how the indexing pipeline treats missing files.
type Info struct {
	Path    string
	Size    int64
	ModTime int64 // Unix seconds
	Exists  bool
}

// Content is the result of extracting text from a file
type Content struct {
	Text     string
	Category types.FileCategory
	Success  bool
	Error    string
}

// Reader is the filesystem port consumed by the indexing pipeline
type Reader interface {
	GetInfo(path string) Info
	Exists(path string) bool
	ReadContent(path string) Content
	ListFiles(dir string, recursive, includeHidden bool) ([]string, error)
	IsDirectory(path string) bool
}

// ExtractFunc converts a non-text file into text. PDF extraction and image
// captioning are external concerns plugged in per category.
type ExtractFunc func(path string) (string, error)

// LocalReader reads files from the local filesystem. Text files work out of
// the box; pdf and image extraction run through optional hooks and report a
// typed failure when no hook is installed.
type LocalReader struct {
	extractPDF    ExtractFunc
	describeImage ExtractFunc
}

// Option configures a LocalReader
type Option func(*LocalReader)

// WithPDFExtractor installs the hook used for pdf files
func WithPDFExtractor(fn ExtractFunc) Option {
	return func(r *LocalReader) { r.extractPDF = fn }
}

// WithImageDescriber installs the hook used for image files
func WithImageDescriber(fn ExtractFunc) Option {
	return func(r *LocalReader) { r.describeImage = fn }
}

// NewLocal creates a LocalReader
func NewLocal(opts ...Option) *LocalReader {
	r := &LocalReader{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetInfo stats path. Any stat error is reported as a non-existent file.
func (r *LocalReader) GetInfo(path string) Info {
	stat, err := os.Stat(path)
	if err != nil || stat.IsDir() {
		return Info{Path: path}
	}
	return Info{
		Path:    path,
		Size:    stat.Size(),
		ModTime: stat.ModTime().Unix(),
		Exists:  true,
	}
}

// Exists reports whether path is a regular file
func (r *LocalReader) Exists(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && !stat.IsDir()
}

// IsDirectory reports whether path is a directory
func (r *LocalReader) IsDirectory(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}

// ReadContent extracts text from path, dispatching on the file category.
// Unknown categories are attempted as text.
func (r *LocalReader) ReadContent(path string) Content {
	category := types.CategoryForPath(path)

	switch category {
	case types.CategoryPDF:
		return r.extract(path, category, r.extractPDF, "pdf extractor not configured")
	case types.CategoryImage:
		return r.extract(path, category, r.describeImage, "image describer not configured")
	default:
		return r.readText(path, category)
	}
}

func (r *LocalReader) readText(path string, category types.FileCategory) Content {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{
			Category: category,
			Error:    fmt.Sprintf("read file: %v", err),
		}
	}
	// Tolerate invalid UTF-8 rather than failing the whole file.
	text := strings.ToValidUTF8(string(data), "")
	return Content{Text: text, Category: category, Success: true}
}

func (r *LocalReader) extract(path string, category types.FileCategory, fn ExtractFunc, missing string) Content {
	if fn == nil {
		return Content{Category: category, Error: missing}
	}
	text, err := fn(path)
	if err != nil {
		return Content{Category: category, Error: err.Error()}
	}
	return Content{Text: text, Category: category, Success: true}
}

// ListFiles collects indexable files under dir. Hidden entries are pruned
// unless includeHidden is set; files whose extension maps to no category are
// skipped. Per-entry errors are skipped so one unreadable subtree does not
// abort the walk.
func (r *LocalReader) ListFiles(dir string, recursive, includeHidden bool) ([]string, error) {
	var files []string

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !includeHidden && isHiddenName(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if types.CategoryForPath(path).IsIndexable() {
				files = append(files, path)
			}
		}
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && !includeHidden && isHiddenName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !includeHidden && isHiddenName(d.Name()) {
			return nil
		}
		if types.CategoryForPath(path).IsIndexable() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", dir, err)
	}

	return files, nil
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".")
}
