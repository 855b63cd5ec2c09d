package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
)

// serverConfig holds the MCP server limits.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	MaxFileSize int
	InlineLimit int
}

var cfg = loadConfig()

// loadConfig reads configuration from ANYCONVERT_MCP_* environment variables.
// Invalid values log a warning and fall back to the default.
func loadConfig() *serverConfig {
	return &serverConfig{
		MaxFileSize: envInt("ANYCONVERT_MCP_MAX_FILE_SIZE", 50<<20),
		InlineLimit: envInt("ANYCONVERT_MCP_INLINE_LIMIT", 10<<20),
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
