package ratelimit

import (
	"math"
	"os"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" matches by prefix)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig builds the limiter configuration from the steady request rate
// and burst applied to reads. A non-positive rps disables limiting. Client
// allow and deny lists come from RATE_LIMIT_WHITELIST and RATE_LIMIT_BLACKLIST.
func LoadConfig(rps float64, burst int) *Config {
	if rps <= 0 {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    int(math.Ceil(rps * 60)),
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(burst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Generation
// calls the LLM and gets the strictest budget.
func DefaultEndpointConfigs(burst int) []EndpointConfig {
	if burst <= 0 {
		burst = 10
	}
	return []EndpointConfig{
		{Path: "/figures/generate", Method: "POST", Limit: 30, Window: time.Hour, Burst: 3},

		{Path: "/figures", Method: "POST", Limit: 120, Window: time.Minute, Burst: burst},
		{Path: "/figures/", Method: "PATCH", Limit: 120, Window: time.Minute, Burst: burst},
		{Path: "/uploads", Method: "POST", Limit: 60, Window: time.Minute, Burst: burst},

		// Reads fall through to the default limit; /health is unlimited.
	}
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		c := &configs[i]
		if c.Path == path && c.Method == method {
			return c
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}

	return nil
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
