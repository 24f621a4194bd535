package db

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConnOptions holds parsed connection parameters for a store.
type ConnOptions struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	TLS      bool
}

// ParseURL parses a redis:// or rediss:// connection URL.
// The password may be embedded in the userinfo section and a numeric path
// segment selects the logical database (defaults to 0).
func ParseURL(raw string) (ConnOptions, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ConnOptions{}, fmt.Errorf("parse url: %w", err)
	}

	var opts ConnOptions
	switch u.Scheme {
	case "redis":
	case "rediss":
		opts.TLS = true
	default:
		return ConnOptions{}, fmt.Errorf("unsupported scheme %q (want redis or rediss)", u.Scheme)
	}

	host := u.Host
	if host == "" {
		return ConnOptions{}, fmt.Errorf("missing host in %q", raw)
	}
	if u.Port() == "" {
		host += ":6379"
	}
	opts.Addrs = []string{host}

	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}

	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		n, err := strconv.Atoi(path)
		if err != nil || n < 0 {
			return ConnOptions{}, fmt.Errorf("invalid database selector %q", path)
		}
		opts.DB = n
	}

	return opts, nil
}
