package uri

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// ToPath converts a file:// document URI into a filesystem path.
func ToPath(docURI string) (string, error) {
	parsed, err := url.Parse(docURI)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", docURI, err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", parsed.Scheme)
	}

	path := parsed.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
	}
	return filepath.FromSlash(path), nil
}

// FromPath converts a filesystem path into a file:// URI.
func FromPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// Ext returns the lowercase extension of the URI's path component.
func Ext(docURI string) string {
	path, err := ToPath(docURI)
	if err != nil {
		path = docURI
	}
	return strings.ToLower(filepath.Ext(path))
}
