// Package importer finds source files in a project's import directory and
// picks the reader for each.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/ledgerbridge/internal/sheet"
)

// Kind says how a source file is ingested.
type Kind int

const (
	// KindUnsupported files are ignored.
	KindUnsupported Kind = iota
	// KindSheet files are parsed locally by a sheet.Reader.
	KindSheet
	// KindDocument files are sent to the oracle for extraction.
	KindDocument
)

var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// Registry holds spreadsheet readers keyed by file extension.
type Registry struct {
	readers map[string]sheet.Reader
}

// FileInfo describes a source file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
	Kind Kind
}

// NewRegistry creates an empty reader registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]sheet.Reader)}
}

// Register adds a reader for the given extensions. Panics on a duplicate
// extension.
func (r *Registry) Register(p sheet.Reader, exts ...string) {
	for _, ext := range exts {
		key := normalizeExt(ext)
		if _, ok := r.readers[key]; ok {
			panic("duplicate reader extension: " + key)
		}
		r.readers[key] = p
	}
}

// Get returns the reader for an extension, or nil.
func (r *Registry) Get(ext string) sheet.Reader {
	return r.readers[normalizeExt(ext)]
}

// ForFile returns the reader for path's extension.
func (r *Registry) ForFile(path string) (sheet.Reader, error) {
	if p := r.Get(filepath.Ext(path)); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("unsupported spreadsheet format %q", filepath.Ext(path))
}

// Kind classifies path by extension.
func (r *Registry) Kind(path string) Kind {
	ext := normalizeExt(filepath.Ext(path))
	if _, ok := r.readers[ext]; ok {
		return KindSheet
	}
	if _, ok := documentTypes[ext]; ok {
		return KindDocument
	}
	return KindUnsupported
}

// DefaultRegistry returns a registry with all built-in readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(sheet.XLSX{}, ".xlsx", ".xlsm")
	r.Register(sheet.CSV{}, ".csv")
	return r
}

// MIMEType returns the media type sent to the oracle for a document, or ""
// when path is not a supported document.
func MIMEType(path string) string {
	return documentTypes[normalizeExt(filepath.Ext(path))]
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Dir is the subdirectory for source files.
const Dir = "import"

// ProcessedDir is the subdirectory for converted source files.
const ProcessedDir = "import/processed"

// Scan returns the supported source files in <repoRoot>/import/, sorted by
// name.
func (r *Registry) Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, Dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		kind := r.Kind(e.Name())
		if kind == KindUnsupported {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
			Kind: kind,
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, Dir, fileName)
	dstDir := filepath.Join(repoRoot, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
