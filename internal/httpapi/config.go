package httpapi

import (
	"net"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAddr         = "127.0.0.1:5000"
	defaultMaxBodyBytes = 1 << 20
)

// Config controls the recipe HTTP server.
//
// Security:
//   - Prefer binding to localhost (default).
//   - If binding to a non-loopback address, set Token or enable AllowInsecure.
type Config struct {
	Addr          string
	Token         string
	AllowInsecure bool
	SystemdSocket bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxBodyBytes  int64
	AddRatePerSec float64
	AddBurst      int
}

func (c Config) addr() string {
	if a := strings.TrimSpace(c.Addr); a != "" {
		return a
	}
	return defaultAddr
}

func (c Config) maxBody() int64 {
	if c.MaxBodyBytes > 0 {
		return c.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}

// limiter returns nil when add-recipe is not rate limited.
func (c Config) limiter() *rate.Limiter {
	if c.AddRatePerSec <= 0 {
		return nil
	}
	burst := c.AddBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.AddRatePerSec), burst)
}

// needsRestart reports whether moving from a to b requires a new listener
// or server. Everything else is applied by swapping the handler.
func needsRestart(a, b Config) bool {
	if a.addr() != b.addr() || a.SystemdSocket != b.SystemdSocket {
		return true
	}
	if a.AllowInsecure != b.AllowInsecure || (a.Token == "") != (b.Token == "") {
		return true
	}
	return a.ReadTimeout != b.ReadTimeout || a.WriteTimeout != b.WriteTimeout || a.IdleTimeout != b.IdleTimeout
}

func isLoopbackAddr(addr string) bool {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	h = strings.TrimSpace(h)
	if h == "" {
		// empty host means all interfaces
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
