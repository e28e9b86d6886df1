package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// LoaderOption configures Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	fs      fs.FS
	client  *http.Client
	timeout time.Duration
}

// WithFileSystem resolves SourceKindFS locations against files.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(cfg *loaderConfig) {
		cfg.fs = files
	}
}

// WithHTTPClient enables URL sources using client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(cfg *loaderConfig) {
		cfg.client = client
	}
}

// WithHTTPFallback enables URL sources with a default client and timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(cfg *loaderConfig) {
		if cfg.client == nil {
			cfg.client = &http.Client{}
		}
		cfg.timeout = timeout
	}
}

// ErrHTTPDisabled is returned for URL sources when no client is configured.
var ErrHTTPDisabled = errors.New("openapi loader: http support disabled")

// Load reads the raw bytes of src. Documents are offline-first: URL sources
// need WithHTTPClient or WithHTTPFallback.
func Load(ctx context.Context, src Source, opts ...LoaderOption) ([]byte, error) {
	var cfg loaderConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location)
	case SourceKindFS:
		if cfg.fs == nil {
			return nil, errors.New("openapi loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(cfg.fs, src.Location)
	case SourceKindURL:
		if cfg.client == nil {
			return nil, ErrHTTPDisabled
		}
		data, err = loadHTTP(ctx, cfg.client, src.Location, cfg.timeout)
	default:
		return nil, fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("openapi loader: %s: %w", src.Location, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi loader: %s: document is empty", src.Location)
	}
	return data, nil
}

func loadHTTP(ctx context.Context, client *http.Client, location string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
