// Package breach looks passwords up in the Have I Been Pwned range API
// using k-anonymity: only the first five hex characters of the password's
// SHA-1 ever leave the process, and the returned suffix list is scanned
// locally.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fahmaliyi/totpvault/logger"
)

const (
	// Unknown is returned by Check when the lookup could not be completed.
	Unknown = -1

	DefaultEndpoint = "https://api.pwnedpasswords.com/range"
	DefaultTimeout  = 5 * time.Second

	prefixLen = 5
	suffixLen = 35
	userAgent = "totpvault-breach-check"
)

var ErrMalformedResponse = errors.New("breach: malformed range response")

// Config holds endpoint settings. Timeout bounds both connecting and
// waiting for the response.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

type Checker struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

func New(cfg Config, l *logger.Logger) *Checker {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &Checker{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		client:   &http.Client{Transport: transport, Timeout: 2 * cfg.Timeout},
		logger:   l,
	}
}

// Hash splits the uppercase hex SHA-1 of password into the 5 character
// prefix that is sent and the 35 character suffix that is not.
func Hash(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password))
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:prefixLen], h[prefixLen:]
}

// Lookup returns how many times password appears in the breach corpus.
func (c *Checker) Lookup(ctx context.Context, password string) (int, error) {
	prefix, suffix := Hash(password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+prefix, nil)
	if err != nil {
		return Unknown, fmt.Errorf("failed to build range request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Unknown, fmt.Errorf("range request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown, fmt.Errorf("range request returned %s", resp.Status)
	}

	return scanRange(bufio.NewScanner(resp.Body), suffix)
}

// Check is Lookup with failures folded into Unknown.
func (c *Checker) Check(ctx context.Context, password string) int {
	n, err := c.Lookup(ctx, password)
	if err != nil {
		c.logger.Warn("Breach checker: lookup failed", "error", err.Error())
		return Unknown
	}
	return n
}

// scanRange parses HEX35:COUNT lines and returns the count for suffix, or
// zero if it is absent. The whole body is validated.
func scanRange(sc *bufio.Scanner, suffix string) (int, error) {
	found := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		hash, count, ok := strings.Cut(line, ":")
		if !ok || len(hash) != suffixLen || !isHex(hash) {
			return Unknown, ErrMalformedResponse
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return Unknown, ErrMalformedResponse
		}

		if strings.EqualFold(hash, suffix) {
			found = n
		}
	}
	if err := sc.Err(); err != nil {
		return Unknown, fmt.Errorf("failed to read range response: %w", err)
	}
	return found, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
