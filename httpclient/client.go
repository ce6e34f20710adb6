// Package httpclient wraps net/http with the two behaviors every
// other component needs from the network: a fixed User-Agent per
// config.UserAgent, and optional routing through a local Tor daemon.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/net/proxy"

	"segdl/config"
)

// Client issues HEAD/GET requests with a fixed User-Agent and, when
// configured, a SOCKS5H proxy to a local Tor daemon.
type Client struct {
	inner     *http.Client
	userAgent config.UserAgent
}

// New builds a Client for the given config snapshot. The Tor SOCKS5
// dialer is built once here and held for the Client's lifetime (each
// connection is dialed through it on demand); it is not
// reconfigured mid-job, matching the by-value config snapshot taken
// at job start.
func New(cfg config.Config) (*Client, error) {
	transport := &http.Transport{}

	if cfg.UseTor {
		dialer, err := proxy.SOCKS5("tcp", config.TorProxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("httpclient: dial tor proxy: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("httpclient: tor dialer does not support context dialing")
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return contextDialer.DialContext(ctx, network, addr)
		}
	}

	return &Client{
		inner: &http.Client{
			Transport: transport,
			Timeout:   0, // callers bound requests via context
		},
		userAgent: cfg.UserAgent,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", c.userAgent.HeaderValue())
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Head issues a HEAD request and wraps the result as a Response. A
// non-2xx status is a request failure, not a usable response.
func (c *Client) Head(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := c.newRequest(ctx, http.MethodHead, url, headers)
	if err != nil {
		return nil, err
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: head %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("httpclient: head %s: unexpected status %s", url, resp.Status)
	}
	return &Response{raw: resp}, nil
}

// Get issues a GET request and wraps the result as a Response. The
// caller owns the returned Response and must Close it. A non-2xx
// status is a request failure, not a usable response.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: get %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("httpclient: get %s: unexpected status %s", url, resp.Status)
	}
	return &Response{raw: resp}, nil
}
