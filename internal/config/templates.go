package config

import (
	"fmt"
	"os"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
)

const (
	KindServer = "server"
	KindClient = "client"
)

// Template renders the defaults for kind as a commented TOML document.
func Template(kind string) (string, error) {
	var (
		header string
		value  any
	)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindServer:
		header = "# ingestd configuration. INGEST_SERVER_<KEY> overrides a key, INGEST_SERVER_<SECTION>__<KEY> a nested one.\n\n"
		value = DefaultServerFile()
	case KindClient:
		header = "# ingestctl configuration. INGEST_CLIENT_<KEY> overrides a key.\n\n"
		value = DefaultClientFile()
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
	body, err := gotoml.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return header + string(body), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// ValidateFile loads path as kind and reports the first problem.
func ValidateFile(path, kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindServer:
		_, err := LoadServer(path)
		return err
	case KindClient:
		_, err := LoadClient(path)
		return err
	default:
		return fmt.Errorf("unknown config kind: %s", kind)
	}
}
