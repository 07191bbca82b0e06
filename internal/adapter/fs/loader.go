package fs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// DefaultMaxFileBytes caps the size of a single document.
const DefaultMaxFileBytes = 10 << 20

// Loader reads files into documents. PDF files are reduced to their plain
// text; everything else must be UTF-8 text.
type Loader struct {
	maxFileBytes int64
	onLoaded     func(path string)
}

var _ port.DocumentLoader = (*Loader)(nil)

type LoaderOption func(*Loader)

func WithMaxFileBytes(n int64) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxFileBytes = n
		}
	}
}

// WithProgress registers a callback run after each file is read.
func WithProgress(fn func(path string)) LoaderOption {
	return func(l *Loader) {
		l.onLoaded = fn
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{maxFileBytes: DefaultMaxFileBytes}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads files in order. Documents are named after the file's base name.
func (l *Loader) Load(files []port.FileInfo) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(files))

	for _, f := range files {
		if f.Size > l.maxFileBytes {
			return nil, fmt.Errorf("%s: file is larger than %d bytes", f.Path, l.maxFileBytes)
		}

		content, err := l.read(f.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}

		docs = append(docs, domain.Document{
			Name:    filepath.Base(f.Path),
			Content: content,
		})

		if l.onLoaded != nil {
			l.onLoaded(f.Path)
		}
	}

	return docs, nil
}

func (l *Loader) read(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ReadPDF(path)
	}
	return ReadFile(path)
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not a UTF-8 text file")
	}
	return string(data), nil
}

// ReadPDF extracts the plain text of every page.
func ReadPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("read pdf buffer: %w", err)
	}

	return buf.String(), nil
}
