package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

func lookup(name string, log *logger.Logger) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", name)
		}
		return "", false
	}
	return v, true
}

func String(name, def string, log *logger.Logger) string {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "env_var", name, "value", v)
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", name, "provided", v, "default", def, "error", err)
		}
		return def
	}
	return i
}

func Bool(name string, def bool, log *logger.Logger) bool {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as bool, using default", "env_var", name, "provided", v, "default", def)
		}
		return def
	}
	return b
}

// Duration accepts Go duration strings ("90s", "10m") or a bare number of
// seconds.
func Duration(name string, def time.Duration, log *logger.Logger) time.Duration {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if log != nil {
		log.Warn("Environment variable could not be parsed as duration, using default", "env_var", name, "provided", v, "default", def.String())
	}
	return def
}
