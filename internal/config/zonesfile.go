package config

import (
	"bufio"
	"os"
	"strings"

	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
	"github.com/railadeividas/powerdns-migrator/internal/zonemodel"
)

// ReadZonesFile reads a newline-delimited list of zone names, skipping
// blank lines and lines starting with "#", and deduplicating by
// normalized name while preserving first-seen order, per spec §6.
func ReadZonesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pdnserrors.NewConfigError("open zones file %s: %v", path, err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key := zonemodel.NormalizeName(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, pdnserrors.NewConfigError("read zones file %s: %v", path, err)
	}
	if len(out) == 0 {
		return nil, pdnserrors.NewConfigError("zones file %s contains no zone names", path)
	}
	return out, nil
}
