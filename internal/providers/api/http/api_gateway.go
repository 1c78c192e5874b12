// Package http implements the change submission gateway against the Reef
// control-plane REST API: snapshot reads, change-record creation and
// cancellation, direct mutations, CSRF token handling, and the cache
// reconciliation each mutation owes its callers.
package http

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/reefcloud/reefctl/cache"
	"github.com/reefcloud/reefctl/config"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/resource"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMediaType   = "application/json"
	defaultCSRFPath    = "/csrf-token"

	csrfTokenHeader = "X-CSRF-Token"
	requestIDHeader = "X-Request-ID"
)

var _ gateway.Gateway = (*APIGateway)(nil)

// APIGateway talks to the control plane over HTTP. The cache handle is an
// explicit dependency: mutations reconcile it, and the duplicate-submission
// guard reads the cached snapshot through it.
type APIGateway struct {
	baseURL        *url.URL
	csrfPath       string
	defaultHeaders map[string]string
	auth           *config.APIAuth
	client         *http.Client
	store          *cache.Store

	csrfMu    sync.Mutex
	csrfToken string
}

type GatewayOption func(*APIGateway)

// WithHTTPClient replaces the underlying client, for tests and custom
// transports.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *APIGateway) {
		if g == nil || client == nil {
			return
		}
		g.client = client
	}
}

func NewAPIGateway(cfg config.API, store *cache.Store, opts ...GatewayOption) (*APIGateway, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, internalError("api gateway requires a cache store", nil)
	}

	tlsConfig, err := buildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	csrfPath := strings.TrimSpace(cfg.CSRFTokenPath)
	if csrfPath == "" {
		csrfPath = defaultCSRFPath
	}

	gw := &APIGateway{
		baseURL:        baseURL,
		csrfPath:       csrfPath,
		defaultHeaders: cloneStringMap(cfg.DefaultHeaders),
		auth:           cfg.Auth,
		client: &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: transport,
		},
		store: store,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(gw)
	}
	return gw, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, validationError("api base-url is required", nil)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, validationError(fmt.Sprintf("invalid api base-url %q", trimmed), err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("api base-url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("api base-url must include a host", nil)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed, nil
}

func buildTLSConfig(cfg *config.TLS) (*tls.Config, error) {
	if cfg == nil {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	if strings.TrimSpace(cfg.CAFile) != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, validationError(fmt.Sprintf("failed to read ca file %s", cfg.CAFile), err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, validationError(fmt.Sprintf("no certificates found in %s", cfg.CAFile), nil)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

func cloneStringMap(source map[string]string) map[string]string {
	if len(source) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(source))
	for key, value := range source {
		cloned[key] = value
	}
	return cloned
}

// resourcePath maps a ref onto its REST path under the base URL.
func resourcePath(ref resource.Ref) (string, error) {
	switch ref.Type {
	case resource.TypeProject:
		if ref.Project == "" {
			return "", validationError("project ref requires a project slug", nil)
		}
		return "/projects/" + url.PathEscape(ref.Project), nil
	case resource.TypeService:
		if ref.Project == "" || ref.Name == "" {
			return "", validationError("service ref requires project and service slugs", nil)
		}
		return "/projects/" + url.PathEscape(ref.Project) + "/services/" + url.PathEscape(ref.Name), nil
	case resource.TypeEnvironment:
		if ref.Project == "" || ref.Name == "" {
			return "", validationError("environment ref requires project and environment slugs", nil)
		}
		return "/projects/" + url.PathEscape(ref.Project) + "/environments/" + url.PathEscape(ref.Name), nil
	default:
		return "", validationError(fmt.Sprintf("unknown resource type %q", string(ref.Type)), nil)
	}
}
