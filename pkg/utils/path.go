package utils

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// URLFromPath canonicalizes path and returns it as a file:// URL.
// Directories always end in a slash.
func URLFromPath(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}

	p := filepath.ToSlash(resolved)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if info.IsDir() && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return &url.URL{Scheme: "file", Path: p}, nil
}

// PathFromURL returns the local filesystem path of a file:// URL.
func PathFromURL(u *url.URL) (string, error) {
	if u == nil || u.Scheme != "file" {
		return "", fmt.Errorf("not a file url: %v", u)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("file url %q has remote host", u)
	}
	if u.Path == "" {
		return "", fmt.Errorf("file url %q has no path", u)
	}
	p := u.Path
	if filepath.Separator != '/' {
		p = strings.TrimPrefix(p, "/")
	}
	return filepath.FromSlash(p), nil
}

// GetDomainFromURL returns the lowercased host of raw without its port, or
// an empty string when raw has no host.
func GetDomainFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
