// Package config loads server and client settings: TOML file onto defaults,
// then INGEST_SERVER_* / INGEST_CLIENT_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	EnvServerPrefix = "INGEST_SERVER_"
	EnvClientPrefix = "INGEST_CLIENT_"
)

var (
	ErrUnknownKeys = errors.New("config: unknown keys")
	ErrInvalid     = errors.New("config: invalid")
)

type TLSFile struct {
	Enabled            bool   `toml:"enabled" koanf:"enabled"`
	CertFile           string `toml:"cert_file" koanf:"cert_file"`
	KeyFile            string `toml:"key_file" koanf:"key_file"`
	CAFile             string `toml:"ca_file" koanf:"ca_file"`
	ServerName         string `toml:"server_name" koanf:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify" koanf:"insecure_skip_verify"`
}

type SessionFile struct {
	ConnectTimeoutMS int     `toml:"connect_timeout_ms" koanf:"connect_timeout_ms" validate:"gte=1"`
	ReadTimeoutMS    int     `toml:"read_timeout_ms" koanf:"read_timeout_ms" validate:"gte=1"`
	WriteTimeoutMS   int     `toml:"write_timeout_ms" koanf:"write_timeout_ms" validate:"gte=1"`
	MaxMessageBytes  int     `toml:"max_message_bytes" koanf:"max_message_bytes" validate:"gte=1"`
	TLS              TLSFile `toml:"tls" koanf:"tls"`
}

type MQTTFile struct {
	Enabled          bool   `toml:"enabled" koanf:"enabled"`
	Broker           string `toml:"broker" koanf:"broker" validate:"required_if=Enabled true"`
	ClientID         string `toml:"client_id" koanf:"client_id"`
	TopicPrefix      string `toml:"topic_prefix" koanf:"topic_prefix"`
	QoS              int    `toml:"qos" koanf:"qos" validate:"gte=0,lte=2"`
	Username         string `toml:"username" koanf:"username"`
	Password         string `toml:"password" koanf:"password"`
	ConnectTimeoutMS int    `toml:"connect_timeout_ms" koanf:"connect_timeout_ms" validate:"gte=0"`
	PublishTimeoutMS int    `toml:"publish_timeout_ms" koanf:"publish_timeout_ms" validate:"gte=0"`
}

// ServerFile is the ingestd config.toml layout.
type ServerFile struct {
	Addr                   string      `toml:"addr" koanf:"addr" validate:"required"`
	AdminAddr              string      `toml:"admin_addr" koanf:"admin_addr"`
	CORSOrigins            []string    `toml:"cors_origins" koanf:"cors_origins"`
	MaxConcurrentExchanges int         `toml:"max_concurrent_exchanges" koanf:"max_concurrent_exchanges" validate:"gte=1"`
	AcceptTimeoutMS        int         `toml:"accept_timeout_ms" koanf:"accept_timeout_ms" validate:"gte=0"`
	ShutdownGraceMS        int         `toml:"shutdown_grace_ms" koanf:"shutdown_grace_ms" validate:"gte=1"`
	Session                SessionFile `toml:"session" koanf:"session"`
	MQTT                   MQTTFile    `toml:"mqtt" koanf:"mqtt"`
}

// ClientFile is the ingestctl config.toml layout.
type ClientFile struct {
	Host      string  `toml:"host" koanf:"host" validate:"required"`
	Port      int     `toml:"port" koanf:"port" validate:"gte=1,lte=65535"`
	Source    string  `toml:"source" koanf:"source"`
	DataFile  string  `toml:"data_file" koanf:"data_file"`
	TimeoutMS int     `toml:"timeout_ms" koanf:"timeout_ms" validate:"gte=1"`
	TLS       TLSFile `toml:"tls" koanf:"tls"`
}

// LoadServer reads path (optional) onto the defaults and applies environment overrides.
func LoadServer(path string) (ServerFile, error) {
	cfg := DefaultServerFile()
	if err := decodeFile(path, &cfg); err != nil {
		return ServerFile{}, err
	}
	if err := overlayEnv(EnvServerPrefix, &cfg); err != nil {
		return ServerFile{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServerFile{}, err
	}
	return cfg, nil
}

func LoadClient(path string) (ClientFile, error) {
	cfg := DefaultClientFile()
	if err := decodeFile(path, &cfg); err != nil {
		return ClientFile{}, err
	}
	if err := overlayEnv(EnvClientPrefix, &cfg); err != nil {
		return ClientFile{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ClientFile{}, err
	}
	return cfg, nil
}

func decodeFile(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("%w in %s: %s", ErrUnknownKeys, path, strings.Join(keys, ", "))
	}
	return nil
}

// overlayEnv maps PREFIX_SECTION__KEY to section.key.
func overlayEnv(prefix string, out any) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return fmt.Errorf("config: load env %s*: %w", prefix, err)
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("config: apply env %s*: %w", prefix, err)
	}
	return nil
}

var validate = validator.New()

func (c ServerFile) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := checkHostPort("addr", c.Addr); err != nil {
		return err
	}
	if strings.TrimSpace(c.AdminAddr) != "" {
		if err := checkHostPort("admin_addr", c.AdminAddr); err != nil {
			return err
		}
		if strings.TrimSpace(c.AdminAddr) == strings.TrimSpace(c.Addr) {
			return fmt.Errorf("%w: admin_addr must differ from addr", ErrInvalid)
		}
	}
	if err := c.Session.toSession().ValidateServerTransport(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c ClientFile) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.ClientConfig().Session.ValidateClientTransport(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func checkHostPort(field, addr string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(addr)); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalid, field, addr, err)
	}
	return nil
}
