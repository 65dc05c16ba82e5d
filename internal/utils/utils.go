// Package utils holds URL helpers shared by the page-driving code.
package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL          = errors.New("empty url")
	ErrMissingHost       = errors.New("missing host")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// NormalizeURL lowercases the scheme and host, converts an IDN host to
// punycode, drops a default port and the fragment. Path and query are kept
// exactly, they are part of the request.
//
// Examples:
//
//	HTTP://Example.COM:80/a?b=1#top → http://example.com/a?b=1
//	https://bücher.example/         → https://xn--bcher-kva.example/
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("couldn't parse url %s: %w", raw, err)
	}
	if err := normalize(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

// ResolveURL resolves ref against base the way a page resolves the target
// of fetch(): relative refs take base's scheme, host and directory. An empty
// ref resolves to base itself.
//
// Examples:
//
//	Base: http://localhost:8080/forms/index.html
//	ResolveURL(base, "/echo")          → "http://localhost:8080/echo"
//	ResolveURL(base, "upload")         → "http://localhost:8080/forms/upload"
//	ResolveURL(base, "https://x.test") → "https://x.test"
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("couldn't parse base url %s: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("couldn't parse url %s: %w", ref, err)
	}
	u := b.ResolveReference(r)
	if err := normalize(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

func normalize(u *url.URL) error {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ErrMissingHost
	}
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	u.Fragment = ""
	u.RawFragment = ""
	return nil
}
