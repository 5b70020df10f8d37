package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath         = "."
	defaultCallbackPath = "/auth/callback"
	defaultSessionTTL   = 2 * time.Hour
	defaultStoragePath  = ".prepwise"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	// Auth is the backend authentication service this client talks to.
	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Session controls persisted interview session behavior.
	Session *SessionConfig `json:"session" yaml:"session"`

	// Notifier configuration for surfacing UI notices
	Notifier *NotifierConfig `json:"notifier" yaml:"notifier"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// AuthConfig defines the authentication backend endpoint and the origin this
// client runs at. CallbackPath is appended to Origin to build the redirect
// target for email-confirmation and password-reset flows; it must match the
// allow-list configured on the backend.
type AuthConfig struct {
	BackendURL     string `json:"backendUrl" yaml:"backendUrl"`
	PublishableKey string `json:"publishableKey" yaml:"publishableKey"`
	Origin         string `json:"origin" yaml:"origin"`
	CallbackPath   string `json:"callbackPath" yaml:"callbackPath"`
}

// SessionConfig defines persisted-session behavior.
type SessionConfig struct {
	// TTL is the maximum age of a persisted session, measured from its last
	// update. Expired records are discarded at load time.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// StoragePath is the directory backing the durable storage tier.
	StoragePath string `json:"storagePath" yaml:"storagePath"`
}

// NotifierConfig defines how UI notices are delivered.
type NotifierConfig struct {
	// Provider type: "local" for local HTTP push, empty for no-op
	Provider string `json:"provider" yaml:"provider"`

	// Local HTTP endpoint receiving notice pushes (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: AUTH_BACKENDURL -> auth.backendUrl (not auth.backendurl)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if cfg.Auth == nil {
		return nil, errors.New("auth backend configuration is required")
	}
	if strings.TrimSpace(cfg.Auth.CallbackPath) == "" {
		cfg.Auth.CallbackPath = defaultCallbackPath
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = defaultSessionTTL
	}
	if strings.TrimSpace(cfg.Session.StoragePath) == "" {
		cfg.Session.StoragePath = defaultStoragePath
	}

	return cfg, nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
