package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyKVOverrides applies -c key=value overrides in order. Unknown keys and
// malformed pairs are reported as errors.
func ApplyKVOverrides(cfg Config, overrides []string) (Config, error) {
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return cfg, fmt.Errorf("override %q: want key=value", raw)
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "install_roots":
			cfg.InstallRoots = splitRoots(val)
		case "rules_file":
			cfg.RulesFile = val
		case "color":
			cfg.Color = val
		case "log_file":
			cfg.LogFile = val
		case "history_file":
			cfg.HistoryFile = val
		case "log_level":
			cfg.LogLevel = val
		case "strict_parse":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return cfg, fmt.Errorf("override %q: %w", raw, err)
			}
			cfg.StrictParse = b
		default:
			return cfg, fmt.Errorf("override %q: unknown key %q", raw, key)
		}
	}
	return cfg, nil
}
