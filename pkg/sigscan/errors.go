package sigscan

import "fmt"

// MalformedBlockError reports a structural violation in the APK Signing
// Block container itself: a size field that disagrees with its twin, or an
// entry length that runs past the block.
type MalformedBlockError struct {
	Reason string
}

func (e *MalformedBlockError) Error() string {
	return "malformed APK signing block: " + e.Reason
}

// SignatureParseError reports that a signing scheme is present but its
// payload cannot be decoded.
type SignatureParseError struct {
	Scheme string
	Reason string
	Err    error
}

func (e *SignatureParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %s signature: %s: %v", e.Scheme, e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing %s signature: %s", e.Scheme, e.Reason)
}

func (e *SignatureParseError) Unwrap() error {
	return e.Err
}

// MalformedCertificateError reports an X.509 DER decode failure.
type MalformedCertificateError struct {
	Err error
}

func (e *MalformedCertificateError) Error() string {
	return fmt.Sprintf("malformed certificate: %v", e.Err)
}

func (e *MalformedCertificateError) Unwrap() error {
	return e.Err
}
