package config

type ContextSelection struct {
	Name string
}

const (
	ContextFileEnvVar         = "REEFCTL_CONTEXTS_FILE"
	ContextNameEnvVar         = "REEFCTL_CONTEXT"
	DefaultContextCatalogPath = "~/.reefctl/contexts.yaml"
)

type ContextCatalog struct {
	Contexts   []Context `yaml:"contexts"`
	CurrentCtx string    `yaml:"current-ctx"`
}

// Context is one named connection to a Reef control plane.
type Context struct {
	Name        string            `yaml:"name"`
	API         API               `yaml:"api"`
	Preferences map[string]string `yaml:"preferences,omitempty"`
}

type API struct {
	BaseURL        string            `yaml:"base-url"`
	CSRFTokenPath  string            `yaml:"csrf-token-path,omitempty"`
	DefaultHeaders map[string]string `yaml:"default-headers,omitempty"`
	Auth           *APIAuth          `yaml:"auth,omitempty"`
	TLS            *TLS              `yaml:"tls,omitempty"`
}

type APIAuth struct {
	BearerToken string     `yaml:"bearer-token,omitempty"`
	BasicAuth   *BasicAuth `yaml:"basic-auth,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type TLS struct {
	CAFile             string `yaml:"ca-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}
