// Package proxy builds the HTTP clients remote adapters use, optionally
// tunnelled through a SOCKS5 proxy.
package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// NewClient returns a client with the given timeout. addr is "host:port",
// optionally prefixed with socks5://; empty means a direct connection.
func NewClient(addr string, timeout time.Duration) (*http.Client, error) {
	addr = strings.TrimPrefix(strings.TrimSpace(addr), "socks5://")
	if addr == "" {
		return &http.Client{Timeout: timeout}, nil
	}

	d, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 %s: %w", addr, err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("socks5 dialer does not take a context")
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	// the environment proxy must not stack on top of the tunnel
	tr.Proxy = nil
	tr.DialContext = cd.DialContext
	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
