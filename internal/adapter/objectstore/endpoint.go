package objectstore

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/hardng/arca/internal/config"
)

var aliasInvalid = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Endpoint is one S3-compatible target, built per run and handed to a
// transport. BaseURL is always scheme-qualified after NewEndpoint.
type Endpoint struct {
	Alias      string
	BaseURL    string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PathPrefix string
}

// NewEndpoint normalizes the raw S3 settings: the URL gains a scheme when
// none is given, and the alias (derived from the bucket when unset) is
// reduced to the identifier charset client tools accept.
func NewEndpoint(cfg config.S3Config) Endpoint {
	alias := cfg.Alias
	if alias == "" {
		alias = cfg.Bucket
	}

	return Endpoint{
		Alias:      NormalizeAlias(alias),
		BaseURL:    NormalizeURL(cfg.URL),
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		Bucket:     cfg.Bucket,
		PathPrefix: cfg.Path,
	}
}

// NormalizeAlias maps an arbitrary name onto [A-Za-z0-9_-]+, prefixing
// with "s3-" when the first character is a digit.
func NormalizeAlias(name string) string {
	alias := aliasInvalid.ReplaceAllString(name, "-")
	alias = strings.Trim(alias, "-")
	if alias == "" {
		return "s3"
	}
	if alias[0] >= '0' && alias[0] <= '9' {
		alias = "s3-" + alias
	}
	return alias
}

// NormalizeURL defaults the scheme to http:// when the endpoint was given
// as a bare host, the way MinIO deployments are usually addressed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

// VirtualHosted reports whether the bucket is already encoded in the
// endpoint hostname (virtual-hosted-style or access-point URLs). Uploads
// against such endpoints must not repeat the bucket in the target path.
func (e Endpoint) VirtualHosted() bool {
	host := e.hostname()
	if host == "" {
		return false
	}
	if strings.Contains(host, "accesspoint") {
		return true
	}
	return e.Bucket != "" && strings.HasPrefix(host, e.Bucket+".")
}

// RemotePath joins bucket (unless virtual-hosted), path prefix and object
// name into the transport-facing target path.
func (e Endpoint) RemotePath(name string) string {
	parts := make([]string, 0, 3)
	if e.Bucket != "" && !e.VirtualHosted() {
		parts = append(parts, e.Bucket)
	}
	if p := strings.Trim(e.PathPrefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return path.Join(parts...)
}

// KeyPath is RemotePath without the bucket segment, for transports that
// address the bucket out of band.
func (e Endpoint) KeyPath(name string) string {
	parts := make([]string, 0, 2)
	if p := strings.Trim(e.PathPrefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return path.Join(parts...)
}

func (e Endpoint) hostname() string {
	u, err := url.Parse(e.BaseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Hostname()
}
