package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	dagflowerrors "github.com/dagflow/dagflow/pkg/errors"
)

// LoadPostgresINI parses a minimal INI file (key = value lines read as one
// section, [section] header lines skipped, '#' and ';' comments and blank
// lines ignored) into a
// PostgresConfig. There is no third-party dependency for this in the
// example pack that isn't already better spent elsewhere (see DESIGN.md);
// the format itself is a handful of scalar fields, so a ~30-line scanner
// is the idiomatic choice over pulling in a dependency for it.
func LoadPostgresINI(path string) (*PostgresConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dagflowerrors.NewIOError(path, err)
	}
	defer f.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue // single-section format; section names are ignored
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, dagflowerrors.NewIOError(path, err)
	}

	cfg := &PostgresConfig{
		Host:     fields["host"],
		Database: fields["database"],
		User:     fields["user"],
		Password: fields["password"],
		SSLMode:  fields["sslmode"],
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	cfg.Port = 5432
	if p, ok := fields["port"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, dagflowerrors.NewParseError(path, 0, err)
		}
		cfg.Port = n
	}
	return cfg, nil
}
