package konturapi

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the library reads.
const EnvPrefix = "KONTUR_"

// Config holds everything needed to talk to the portal. Values load from a
// YAML file, then environment variables override (env wins).
type Config struct {
	// BaseURL is the portal root. Defaults to the production portal.
	BaseURL string `yaml:"base_url" json:"base_url,omitempty"`

	// OrganizationID scopes certificate and auth requests (required).
	OrganizationID string `yaml:"organization_id" json:"organization_id,omitempty"`

	// WarehouseID scopes document creation (required).
	WarehouseID string `yaml:"warehouse_id" json:"warehouse_id,omitempty"`

	// Thumbprint identifies the signing certificate (required). There is
	// no first-certificate fallback.
	Thumbprint string `yaml:"thumbprint" json:"thumbprint,omitempty"`

	// CookieFile is a harvested cookie file (JSON or YAML) to read
	// credentials from.
	CookieFile string `yaml:"cookie_file" json:"cookie_file,omitempty"`

	// CookieCommand is an external collector invoked when the cookie file
	// is missing or stale. It must print a JSON token map on stdout.
	CookieCommand string `yaml:"cookie_command" json:"cookie_command,omitempty"`

	// ProductGroup, ReleaseMethodType, CisType and FillingMethod are the
	// order tags stamped on every created document.
	ProductGroup      string `yaml:"product_group" json:"product_group,omitempty"`
	ReleaseMethodType string `yaml:"release_method_type" json:"release_method_type,omitempty"`
	CisType           string `yaml:"cis_type" json:"cis_type,omitempty"`
	FillingMethod     string `yaml:"filling_method" json:"filling_method,omitempty"`

	// SessionLifetime is how long a portal session is trusted (e.g. "13m").
	// The portal invalidates cookies after roughly 13 minutes.
	SessionLifetime string `yaml:"session_lifetime" json:"session_lifetime,omitempty"`

	// RefreshThreshold is the fraction of the lifetime after which a
	// handout nudges the background refresher. Between 0 and 1 exclusive.
	RefreshThreshold float64 `yaml:"refresh_threshold" json:"refresh_threshold,omitempty"`

	// RetryInterval is the wait before retrying a failed background
	// session refresh (e.g. "60s").
	RetryInterval string `yaml:"retry_interval" json:"retry_interval,omitempty"`

	// RequestTimeout bounds each vendor request (e.g. "30s").
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout,omitempty"`

	// HistoryFile is the order journal path, typically on a network share.
	// Empty keeps history in memory only.
	HistoryFile string `yaml:"history_file" json:"history_file,omitempty"`

	// CatalogFile is the product nomenclature CSV. Optional; without it
	// positions must carry explicit GTINs.
	CatalogFile string `yaml:"catalog_file" json:"catalog_file,omitempty"`

	// SignTool and CertmgrTool locate the CryptoPro command-line binaries.
	SignTool    string `yaml:"sign_tool" json:"sign_tool,omitempty"`
	CertmgrTool string `yaml:"certmgr_tool" json:"certmgr_tool,omitempty"`

	// OrderSignaturesDetached selects detached signatures for order
	// documents. Defaults to true.
	OrderSignaturesDetached *bool `yaml:"order_signatures_detached" json:"order_signatures_detached,omitempty"`

	// AuthSignaturesDetached selects detached signatures for CRPT auth
	// challenges. Defaults to false; the portal wants them attached.
	AuthSignaturesDetached *bool `yaml:"auth_signatures_detached" json:"auth_signatures_detached,omitempty"`

	// CheckRegistration verifies the signing certificate is registered for
	// the organization before signing. Defaults to true.
	CheckRegistration *bool `yaml:"check_registration" json:"check_registration,omitempty"`

	// MetricsEnabled registers Prometheus metrics on the default registry.
	MetricsEnabled bool `yaml:"metrics_enabled" json:"metrics_enabled,omitempty"`

	// Workers bounds how many order workflows the CLI runs in parallel.
	Workers int `yaml:"workers" json:"workers,omitempty"`
}

// LoadConfig reads a YAML config file. Defaults are not applied here;
// call SetDefaults (New does it for you).
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overlays KONTUR_* environment variables onto the config.
// All malformed values are reported together.
func (c *Config) FromEnv() error {
	var result *multierror.Error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	setBool := func(key string, dst func(bool)) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			dst(parsed)
		}
	}

	setString("BASE_URL", &c.BaseURL)
	setString("ORGANIZATION_ID", &c.OrganizationID)
	setString("WAREHOUSE_ID", &c.WarehouseID)
	setString("THUMBPRINT", &c.Thumbprint)
	setString("COOKIE_FILE", &c.CookieFile)
	setString("COOKIE_COMMAND", &c.CookieCommand)
	setString("PRODUCT_GROUP", &c.ProductGroup)
	setString("RELEASE_METHOD_TYPE", &c.ReleaseMethodType)
	setString("CIS_TYPE", &c.CisType)
	setString("FILLING_METHOD", &c.FillingMethod)
	setString("SESSION_LIFETIME", &c.SessionLifetime)
	setString("RETRY_INTERVAL", &c.RetryInterval)
	setString("REQUEST_TIMEOUT", &c.RequestTimeout)
	setString("HISTORY_FILE", &c.HistoryFile)
	setString("CATALOG_FILE", &c.CatalogFile)
	setString("SIGN_TOOL", &c.SignTool)
	setString("CERTMGR_TOOL", &c.CertmgrTool)

	if v, ok := os.LookupEnv(EnvPrefix + "REFRESH_THRESHOLD"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%sREFRESH_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.RefreshThreshold = parsed
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "WORKERS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%sWORKERS: %w", EnvPrefix, err))
		} else {
			c.Workers = parsed
		}
	}

	setBool("ORDER_SIGNATURES_DETACHED", func(v bool) { c.OrderSignaturesDetached = boolPtr(v) })
	setBool("AUTH_SIGNATURES_DETACHED", func(v bool) { c.AuthSignaturesDetached = boolPtr(v) })
	setBool("CHECK_REGISTRATION", func(v bool) { c.CheckRegistration = boolPtr(v) })
	setBool("METRICS_ENABLED", func(v bool) { c.MetricsEnabled = v })

	return result.ErrorOrNil()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if c.WarehouseID == "" {
		return fmt.Errorf("warehouse_id is required")
	}
	if strings.TrimSpace(c.Thumbprint) == "" {
		return fmt.Errorf("thumbprint is required")
	}
	if c.ProductGroup == "" {
		return fmt.Errorf("product_group is required")
	}

	for _, d := range []struct {
		key   string
		value string
	}{
		{"session_lifetime", c.SessionLifetime},
		{"retry_interval", c.RetryInterval},
		{"request_timeout", c.RequestTimeout},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if c.RefreshThreshold < 0 || c.RefreshThreshold >= 1 {
		return fmt.Errorf("refresh_threshold must be between 0 and 1 exclusive, got %v", c.RefreshThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// SetDefaults applies default values to unset configuration fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ReleaseMethodType == "" {
		c.ReleaseMethodType = "production"
	}
	if c.CisType == "" {
		c.CisType = "unit"
	}
	if c.FillingMethod == "" {
		c.FillingMethod = "manually"
	}
	if c.SessionLifetime == "" {
		c.SessionLifetime = "13m"
	}
	if c.RefreshThreshold == 0 {
		c.RefreshThreshold = 0.8
	}
	if c.RetryInterval == "" {
		c.RetryInterval = "60s"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
	if c.SignTool == "" {
		c.SignTool = "cryptcp"
	}
	if c.CertmgrTool == "" {
		c.CertmgrTool = "certmgr"
	}
	if c.OrderSignaturesDetached == nil {
		c.OrderSignaturesDetached = boolPtr(true)
	}
	if c.AuthSignaturesDetached == nil {
		c.AuthSignaturesDetached = boolPtr(false)
	}
	if c.CheckRegistration == nil {
		c.CheckRegistration = boolPtr(true)
	}
	if c.Workers == 0 {
		c.Workers = 2
	}
}

func boolPtr(v bool) *bool {
	b := v
	return &b
}

// duration parses a validated duration field, falling back when unset.
func duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
