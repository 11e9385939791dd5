package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
)

// parseParams turns "key=value,key2=value2" into query values.
func parseParams(s string) (url.Values, error) {
	q := url.Values{}
	for _, kv := range parseCommaSeparatedList(s) {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}
		q.Add(key, strings.TrimSpace(value))
	}
	return q, nil
}

// callOptions converts query values into Calendar API call options.
func callOptions(q url.Values) []googleapi.CallOption {
	opts := make([]googleapi.CallOption, 0, len(q))
	for key, values := range q {
		opts = append(opts, googleapi.QueryParameter(key, values...))
	}
	return opts
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
