package scanner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies why a request produced no usable response.
type FailureKind int

const (
	FailOther FailureKind = iota
	FailTimeout
	FailConnection
	FailTLS
	FailCanceled
	FailBody
)

func (k FailureKind) String() string {
	switch k {
	case FailTimeout:
		return "timeout"
	case FailConnection:
		return "connection"
	case FailTLS:
		return "tls"
	case FailCanceled:
		return "canceled"
	case FailBody:
		return "body"
	default:
		return "other"
	}
}

// RequestError carries a failed request and its classified kind. Callers
// inspect it once with errors.As instead of matching on messages.
type RequestError struct {
	Kind   FailureKind
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// KindOf returns the FailureKind of err, or FailOther when err is not a
// RequestError.
func KindOf(err error) FailureKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return FailOther
}

func classifyError(ctx context.Context, err error) FailureKind {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return FailCanceled
	}
	if errors.Is(err, context.Canceled) {
		return FailCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}
	var (
		recordErr  tls.RecordHeaderError
		certErr    *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &certErr) ||
		errors.As(err, &unknownCA) || errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return FailTLS
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return FailConnection
	}
	return FailOther
}
