// Package sigscan locates and parses every app-signing scheme present in
// an APK: JAR-style v1 signatures inside META-INF, and the APK Signing
// Block carrying v2, v3 and v3.1 signatures plus vendor extension blocks.
// It extracts signer certificates and metadata only; digest and trust
// verification are explicitly out of scope, and no precedence between
// schemes is applied; callers get the raw per-scheme results.
package sigscan

// SchemeKind discriminates the signing scheme variants. The set is open
// ended: block IDs this package does not recognize surface as
// SchemeUnknown rather than being dropped, so new schemes become new kinds
// over time without breaking callers.
type SchemeKind int

const (
	// SchemeV1 is JAR-style signing: per-entry digests plus a PKCS#7
	// signature file under META-INF.
	SchemeV1 SchemeKind = iota
	// SchemeV2 is the APK Signature Scheme v2 block.
	SchemeV2
	// SchemeV3 is the APK Signature Scheme v3 block, adding key rotation.
	SchemeV3
	// SchemeV31 is the v3.1 block used for targeted rotation.
	SchemeV31
	// SchemeChannel is the Walle channel-marker vendor block. Its payload
	// format is vendor defined and kept opaque.
	SchemeChannel
	// SchemeUnknown is any other block ID, carried with its exact value
	// bytes.
	SchemeUnknown
)

func (k SchemeKind) String() string {
	switch k {
	case SchemeV1:
		return "v1"
	case SchemeV2:
		return "v2"
	case SchemeV3:
		return "v3"
	case SchemeV31:
		return "v3.1"
	case SchemeChannel:
		return "channel-block"
	default:
		return "unknown"
	}
}

// Scheme is one signing scheme found in the archive. V1 through V31 carry
// signers; Channel and Unknown carry the raw block value plus its ID.
type Scheme struct {
	Kind    SchemeKind
	BlockID uint32 // 0 for v1
	Signers []Signer
	Raw     []byte // channel and unknown blocks only
}

// Signer is one signer within a scheme: its certificate chain in encoded
// order (not re-validated), the signature algorithm IDs it used (v2 and
// later), and for v3/v3.1 the SDK rotation range, retained but not
// interpreted.
type Signer struct {
	Certificates []*Certificate
	AlgorithmIDs []uint32
	MinSDK       uint32
	MaxSDK       uint32
}

// SoftError records a v1 signature pair that could not be decoded. Soft
// errors accompany the successful results so callers can tell "no v1
// signing" apart from "broken v1 signing" without one corrupt pair hiding
// valid signers.
type SoftError struct {
	Source string // archive entry the failure came from
	Err    error
}

func (e SoftError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

// Report is the outcome of a scan: the schemes in the order they were
// found (v1 first, then signing-block entries in block order, which is
// insertion order rather than a priority), plus soft errors from
// recoverable v1 failures.
type Report struct {
	Schemes    []Scheme
	SoftErrors []SoftError
}

// Scheme returns the first scheme of the given kind, or nil.
func (r *Report) Scheme(kind SchemeKind) *Scheme {
	for i := range r.Schemes {
		if r.Schemes[i].Kind == kind {
			return &r.Schemes[i]
		}
	}
	return nil
}
