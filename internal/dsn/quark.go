// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// URLResolver handles quark://[token@]host[:port] addresses
type URLResolver struct{}

// NewURLResolver creates a new URL resolver
func NewURLResolver() *URLResolver {
	return &URLResolver{}
}

// Parse parses a quark:// address
func (r *URLResolver) Parse(addr string) (*Address, error) {
	if !strings.HasPrefix(strings.ToLower(addr), Scheme+"://") {
		return nil, NewParseError(addr, "missing or invalid scheme", "use quark://[token@]host[:port]")
	}
	remainder := addr[len(Scheme+"://"):]

	// Try standard URL parsing first
	parsed, err := url.Parse(addr)
	if err == nil && !strings.Contains(parsed.Path, "@") {
		return r.extractFromURL(parsed, addr)
	}

	// Standard parsing failed, likely an unencoded token
	return r.manualParse(remainder, addr)
}

func (r *URLResolver) extractFromURL(parsed *url.URL, original string) (*Address, error) {
	if parsed.Path != "" && parsed.Path != "/" {
		return nil, NewParseError(original, "unexpected path "+parsed.Path, "the address names a server, not a resource")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return nil, NewParseError(original, "unexpected query or fragment", "use quark://[token@]host[:port]")
	}

	a := &Address{Original: original}
	if parsed.User != nil {
		a.Token = parsed.User.Username()
		// quark://:token@host is accepted as well
		if a.Token == "" {
			a.Token, _ = parsed.User.Password()
		}
	}

	host, port, err := splitHostPort(parsed.Host, original)
	if err != nil {
		return nil, err
	}
	a.Host, a.Port = host, port
	return a, nil
}

// manualParse handles tokens containing characters that url.Parse rejects
func (r *URLResolver) manualParse(remainder, original string) (*Address, error) {
	a := &Address{Original: original}

	hostPart := remainder
	if at := strings.LastIndex(remainder, "@"); at != -1 {
		a.Token = remainder[:at]
		hostPart = remainder[at+1:]
	}
	hostPart = strings.TrimSuffix(hostPart, "/")
	if strings.ContainsAny(hostPart, "/?#") {
		return nil, NewParseError(original, "unexpected path", "the address names a server, not a resource")
	}

	host, port, err := splitHostPort(hostPart, original)
	if err != nil {
		return nil, err
	}
	a.Host, a.Port = host, port
	return a, nil
}

// Normalize formats an address as quark://[token@]host:port
func (r *URLResolver) Normalize(a *Address) (string, error) {
	if a == nil {
		return "", NewParseError("", "nil address", "")
	}
	if strings.TrimSpace(a.Host) == "" {
		return "", NewParseError(a.Original, "missing host", "")
	}
	u := url.URL{Scheme: Scheme, Host: a.String()}
	if a.Token != "" {
		u.User = url.User(a.Token)
	}
	return u.String(), nil
}

// HostPortResolver handles bare host, host:port and [v6]:port addresses
type HostPortResolver struct{}

// NewHostPortResolver creates a new host:port resolver
func NewHostPortResolver() *HostPortResolver {
	return &HostPortResolver{}
}

// Parse parses a bare address
func (r *HostPortResolver) Parse(addr string) (*Address, error) {
	if strings.Contains(addr, "@") {
		return nil, NewParseError(addr, "token given without scheme", "use quark://token@host:port")
	}
	host, port, err := splitHostPort(addr, addr)
	if err != nil {
		return nil, err
	}
	return &Address{Host: host, Port: port, Original: addr}, nil
}

// Normalize formats an address as host:port
func (r *HostPortResolver) Normalize(a *Address) (string, error) {
	if a == nil {
		return "", NewParseError("", "nil address", "")
	}
	return a.String(), nil
}

// splitHostPort splits hostport, defaulting the port. A bare IPv6 literal
// without brackets is taken as a host with no port.
func splitHostPort(hostport, original string) (string, int, error) {
	if hostport == "" {
		return "", 0, NewParseError(original, "missing host", "provide a host such as localhost:8080")
	}

	var host, port string
	switch {
	case strings.HasPrefix(hostport, "["):
		end := strings.Index(hostport, "]")
		if end == -1 {
			return "", 0, NewParseError(original, "unterminated IPv6 literal", "use [::1]:8080")
		}
		host = hostport[1:end]
		rest := hostport[end+1:]
		if rest != "" {
			if !strings.HasPrefix(rest, ":") {
				return "", 0, NewParseError(original, "unexpected text after IPv6 literal", "use [::1]:8080")
			}
			port = rest[1:]
			if port == "" {
				return "", 0, NewParseError(original, "empty port", "omit the colon or name a port")
			}
		}
	case strings.Count(hostport, ":") == 1:
		var err error
		host, port, err = net.SplitHostPort(hostport)
		if err != nil {
			return "", 0, NewParseError(original, err.Error(), "")
		}
		if port == "" {
			return "", 0, NewParseError(original, "empty port", "omit the colon or name a port")
		}
	default:
		host = hostport
	}

	if strings.TrimSpace(host) == "" {
		return "", 0, NewParseError(original, "missing host", "provide a host such as localhost:8080")
	}
	if port == "" {
		return host, DefaultPort, nil
	}
	n, err := ParsePort(port)
	if err != nil {
		return "", 0, NewParseError(original, err.Error(), "port must be between 1 and 65535")
	}
	return host, n, nil
}

// ParsePort parses a TCP port number
func ParsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("port out of range: %d", n)
	}
	return n, nil
}
