package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BaseURLValidator checks the backend base URL taken from config or flags.
type BaseURLValidator struct {
	// RequireHTTPS rejects plain http for anything but loopback hosts
	RequireHTTPS bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewBaseURLValidator accepts http and https; self-hosted backends commonly
// run on localhost or a LAN address.
func NewBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		RequireHTTPS: false,
		MaxLength:    2048,
	}
}

// NewStrictBaseURLValidator requires https for every non-loopback host.
func NewStrictBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		RequireHTTPS: true,
		MaxLength:    2048,
	}
}

// ValidateBaseURL validates raw with the default validator.
func ValidateBaseURL(raw string) (string, error) {
	return NewBaseURLValidator().ValidateAndNormalize(raw)
}

// ValidateAndNormalize returns the URL without trailing slash, query or fragment.
func (v *BaseURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("credentials are not allowed in the URL")
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if port := parsedURL.Port(); port != "" {
		if _, err := net.LookupPort("tcp", port); err != nil {
			return "", fmt.Errorf("invalid port %q", port)
		}
	}

	if v.RequireHTTPS && parsedURL.Scheme == "http" && !isLoopback(hostname) {
		return "", fmt.Errorf("https is required for %s", hostname)
	}

	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	parsedURL.RawQuery = ""
	parsedURL.Fragment = ""
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	parsedURL.Host = strings.ToLower(parsedURL.Host)

	return parsedURL.String(), nil
}

func isLoopback(hostname string) bool {
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}
