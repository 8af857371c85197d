package ratelimit

import "strings"

// MatchEndpoint resolves the budget for a request path and method. Exact
// path matches win; a configured path ending in "/" matches as a prefix,
// which is how the /runs/{id} routes share one budget. Health checks are
// never limited. Returns nil when no budget applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") &&
			strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
