// Package fetcher downloads corpus archives over HTTP(S) or FTP.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// ConditionalFetcher can skip a download when the remote resource is unchanged.
type ConditionalFetcher interface {
	Fetcher
	// DownloadIfChanged fetches the URL only if the ETag has changed.
	// Returns (body, newETag, changed, error). If not changed, body is nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}

// Options configures the fetcher returned by ForURL.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// ForURL returns the fetcher for the URL's scheme.
func ForURL(rawURL string, opts Options) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewHTTPFetcher(HTTPOptions{
			UserAgent:         opts.UserAgent,
			Timeout:           opts.Timeout,
			MaxRetries:        opts.MaxRetries,
			RequestsPerSecond: opts.RequestsPerSecond,
		}), nil
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// Result describes one Fetch call.
type Result struct {
	Path    string
	Bytes   int64
	Skipped bool
}

// etagPath is the sidecar file that remembers the last ETag for dest.
func etagPath(dest string) string {
	return dest + ".etag"
}

// Fetch downloads rawURL to dest. The body is written to a temporary file
// in the destination directory and renamed into place, so dest is never
// left half-written. When f supports conditional requests and dest already
// exists, an unchanged resource is not downloaded again.
func Fetch(ctx context.Context, f Fetcher, rawURL, dest string) (Result, error) {
	log := zap.L().With(zap.String("url", rawURL), zap.String("dest", dest))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, eris.Wrap(err, "fetcher: create destination directory")
	}

	if cf, ok := f.(ConditionalFetcher); ok {
		return fetchConditional(ctx, cf, rawURL, dest, log)
	}

	tmp := dest + ".part"
	n, err := f.DownloadToFile(ctx, rawURL, tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return Result{}, eris.Wrap(err, "fetcher: download")
	}
	if err := os.Rename(tmp, dest); err != nil {
		return Result{}, eris.Wrap(err, "fetcher: move into place")
	}
	log.Info("corpus downloaded", zap.Int64("bytes", n))
	return Result{Path: dest, Bytes: n}, nil
}

func fetchConditional(ctx context.Context, f ConditionalFetcher, rawURL, dest string, log *zap.Logger) (Result, error) {
	var etag string
	if _, err := os.Stat(dest); err == nil {
		if b, err := os.ReadFile(etagPath(dest)); err == nil {
			etag = strings.TrimSpace(string(b))
		}
	}

	body, newETag, changed, err := f.DownloadIfChanged(ctx, rawURL, etag)
	if err != nil {
		return Result{}, eris.Wrap(err, "fetcher: download")
	}
	if !changed {
		log.Info("corpus unchanged, skipping download", zap.String("etag", etag))
		return Result{Path: dest, Skipped: true}, nil
	}
	defer body.Close() //nolint:errcheck

	tmp := dest + ".part"
	n, err := writeFile(tmp, body)
	if err != nil {
		_ = os.Remove(tmp)
		return Result{}, err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return Result{}, eris.Wrap(err, "fetcher: move into place")
	}

	if newETag != "" {
		if err := os.WriteFile(etagPath(dest), []byte(newETag+"\n"), 0o644); err != nil {
			log.Warn("fetcher: could not record etag", zap.Error(err))
		}
	} else {
		_ = os.Remove(etagPath(dest))
	}

	log.Info("corpus downloaded", zap.Int64("bytes", n), zap.String("etag", newETag))
	return Result{Path: dest, Bytes: n}, nil
}

// writeFile copies r into a newly created file at path.
func writeFile(path string, r io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
