package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

// classify maps a transport error onto the failure-kind vocabulary in
// domain. Callers put the result into ProbeResult.Detail so tests and
// operators can tell a timeout from a refused connection.
func classify(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, errTooManyRedirects) {
		return domain.DetailTooManyRedirects
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.DetailTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.DetailTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.DetailDNSFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.DetailConnectionRefused
	}

	var recErr tls.RecordHeaderError
	var verifyErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &recErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) || errors.As(err, &hostErr) ||
		errors.As(err, &invalidCert) {
		return domain.DetailTLSFailure
	}

	return domain.DetailNetworkError
}
