package typeloader

import (
	"context"
	"fmt"
	"maps"
	"net"
	"os"
	"time"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

// Built-in implementation classnames.
const (
	ClassStatic   = "composer.builtin.Static"
	ClassFile     = "composer.builtin.File"
	ClassEndpoint = "composer.builtin.Endpoint"
)

// RegisterBuiltins registers the implementations shipped with composer.
func RegisterBuiltins(r *Registry) {
	r.Register(ClassStatic, newStatic, nil)
	r.Register(ClassFile, newFile, &FileExtractor{})
	r.Register(ClassEndpoint, newEndpoint, &NetworkExtractor{})
}

// Static exposes its configuration and context to consumers.
type Static struct {
	Configuration map[string]any
	Context       map[string]any
}

func newStatic(_ context.Context, d Deployment) (any, error) {
	return &Static{
		Configuration: maps.Clone(d.Configuration),
		Context:       maps.Clone(d.Context),
	}, nil
}

// File is a file the component was configured with. Start fails when the
// file does not exist.
type File struct {
	Path string
}

func newFile(_ context.Context, d Deployment) (any, error) {
	path, _ := d.Configuration["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("%s: configuration key \"path\" is required", d.Path)
	}
	return &File{Path: path}, nil
}

func (f *File) Start(context.Context) error {
	if _, err := os.Stat(f.Path); err != nil {
		return fmt.Errorf("file %s: %w", f.Path, err)
	}
	return nil
}

// Endpoint is a TCP address that must be reachable when the component starts.
type Endpoint struct {
	Address string
	Timeout time.Duration
}

func newEndpoint(_ context.Context, d Deployment) (any, error) {
	host, _ := d.Configuration["host"].(string)
	if host == "" {
		return nil, fmt.Errorf("%s: configuration key \"host\" is required", d.Path)
	}
	e := &Endpoint{Address: host, Timeout: 5 * time.Second}
	if ms, ok := asInt(d.Configuration["timeout_ms"]); ok && ms > 0 {
		e.Timeout = time.Duration(ms) * time.Millisecond
	}
	return e, nil
}

func (e *Endpoint) Start(ctx context.Context) error {
	dialer := net.Dialer{Timeout: e.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.Address)
	if err != nil {
		return fmt.Errorf("endpoint %s: %w", e.Address, err)
	}
	return conn.Close()
}

// asInt accepts the integer forms produced by YAML and JSON decoding.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// FileExtractor extracts filesystem capabilities.
type FileExtractor struct{}

// Extract returns read access to the configured path.
func (e *FileExtractor) Extract(config map[string]any) []capabilities.Capability {
	var caps []capabilities.Capability
	if path, ok := config["path"].(string); ok && path != "" {
		caps = append(caps, capabilities.Capability{
			Kind:    capabilities.KindFS,
			Pattern: "read:" + path,
		})
	}
	return caps
}

// NetworkExtractor extracts network capabilities.
type NetworkExtractor struct{}

// Extract returns outbound access to the configured url or host.
func (e *NetworkExtractor) Extract(config map[string]any) []capabilities.Capability {
	var caps []capabilities.Capability
	for _, key := range []string{"url", "host"} {
		if target, ok := config[key].(string); ok && target != "" {
			caps = append(caps, capabilities.Capability{
				Kind:    capabilities.KindNetwork,
				Pattern: "outbound:" + target,
			})
		}
	}
	return caps
}
