package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Classifier implements dormstats.ErrorClassifier for PostgreSQL errors.
//
// Transient SQLSTATE classes, per the PostgreSQL errcodes appendix:
//   - Class 08: connection exception
//   - Class 40: transaction rollback (serialization failure, deadlock)
//   - Class 53: insufficient resources
//   - Class 57: operator intervention (shutdown, cannot connect now)
type Classifier struct{}

// NewClassifier creates a new PostgreSQL error classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *Classifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	if isNetworkError(err) {
		return true
	}

	return matchesConnectionPattern(err)
}

func isTransientCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"),
		strings.HasPrefix(code, "40"),
		strings.HasPrefix(code, "53"),
		strings.HasPrefix(code, "57"):
		return true
	case code == "55P03": // lock_not_available
		return true
	default:
		return false
	}
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{
			syscall.ECONNREFUSED,
			syscall.ECONNRESET,
			syscall.ENETUNREACH,
			syscall.EHOSTUNREACH,
		} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	return false
}

// matchesConnectionPattern catches wrapped connection failures that surface
// only as text, e.g. from pool initialization.
func matchesConnectionPattern(err error) bool {
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"connection failure",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"unexpected eof",
	}
	for _, pattern := range patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
