package tcp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/sanLimbu/tasksync/internal"
)

const (
	// Scheme is the URL scheme identifying a tasksync server.
	Scheme = "tasksync"
	// DefaultPort is used when a server URL has no port.
	DefaultPort = 11180
)

// DefaultServerURL points to a server running on the local machine.
var DefaultServerURL = fmt.Sprintf("%s://127.0.0.1:%d", Scheme, DefaultPort)

// ParseServerURL parses a server location. The scheme and the port are optional, so "host",
// "host:1234" and "tasksync://host" are all accepted.
func ParseServerURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "empty server URL")
	}

	if !strings.Contains(s, "://") {
		s = Scheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "url.Parse")
	}

	if u.Scheme != Scheme {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument,
			"server URL has an incorrect scheme (expected %s, got %s)", Scheme, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, internal.NewErrorf(internal.ErrorCodeInvalidArgument, "server URL %q has no host", s)
	}

	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(DefaultPort))
	} else if _, err := strconv.ParseUint(u.Port(), 10, 16); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid port %q", u.Port())
	}

	return u, nil
}

// ServerAddress parses s with ParseServerURL and returns the host:port to dial.
func ServerAddress(s string) (string, error) {
	u, err := ParseServerURL(s)
	if err != nil {
		return "", err
	}

	return u.Host, nil
}
