package converter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source is an SVG document to convert.
type Source interface {
	// Name is the document's file name, used to derive destination names.
	Name() string
	// Readable reports whether Open can be expected to succeed.
	Readable() bool
	// SameAs reports whether the source is the file at path.
	SameAs(path string) bool
	// Open returns the document bytes.
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource is a document on the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return filepath.Base(s.Path)
}

func (s FileSource) Readable() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

func (s FileSource) SameAs(p string) bool {
	return sameFile(s.Path, p)
}

func (s FileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileSource) String() string {
	return s.Path
}

// Credential is the basic authentication used for URL sources on Host.
type Credential struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// URLSource is a document fetched by URL. http and https URLs are
// requested with Client; file URLs are read from disk.
type URLSource struct {
	URL         string
	Client      *http.Client
	Credentials []Credential
}

func (s URLSource) Name() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return s.URL
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return u.Host + ".svg"
	}
	return name
}

func (s URLSource) Readable() bool {
	u, err := url.Parse(s.URL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "file":
		return FileSource{Path: u.Path}.Readable()
	case "http", "https":
		return u.Host != ""
	}
	return false
}

func (s URLSource) SameAs(p string) bool {
	u, err := url.Parse(s.URL)
	if err != nil || u.Scheme != "file" {
		return false
	}
	return sameFile(u.Path, p)
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "file" {
		return os.Open(u.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c, ok := lookupCredential(s.Credentials, u); ok {
		req.SetBasicAuth(c.Username, c.Password)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: %s", s.URL, resp.Status)
	}
	return resp.Body, nil
}

func (s URLSource) String() string {
	return s.URL
}

// lookupCredential matches a credential by host:port first, then host.
func lookupCredential(creds []Credential, u *url.URL) (Credential, bool) {
	for _, c := range creds {
		if strings.EqualFold(c.Host, u.Host) {
			return c, true
		}
	}
	for _, c := range creds {
		if strings.EqualFold(c.Host, u.Hostname()) {
			return c, true
		}
	}
	return Credential{}, false
}

func sameFile(a, b string) bool {
	ai, errA := os.Stat(a)
	bi, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(ai, bi)
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// NewSource returns a FileSource for an existing path and a URLSource for
// anything else.
func NewSource(s string) Source {
	if _, err := os.Stat(s); err == nil {
		return FileSource{Path: s}
	}
	return URLSource{URL: s}
}
