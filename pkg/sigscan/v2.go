package sigscan

import (
	"encoding/binary"
	"fmt"
)

// lpReader consumes the uint32-length-prefixed records the signing block
// schemes are built from. Every read is bounds-checked; a hostile length
// produces an error, never an out-of-range slice.
type lpReader struct {
	b []byte
}

func (r *lpReader) empty() bool {
	return len(r.b) == 0
}

func (r *lpReader) u32() (uint32, error) {
	if len(r.b) < 4 {
		return 0, fmt.Errorf("need 4 bytes, %d remain", len(r.b))
	}
	v := binary.LittleEndian.Uint32(r.b)
	r.b = r.b[4:]
	return v, nil
}

func (r *lpReader) prefixed() (*lpReader, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(len(r.b)) {
		return nil, fmt.Errorf("length-prefixed field of %d bytes, %d remain", n, len(r.b))
	}
	out := &lpReader{b: r.b[:n]}
	r.b = r.b[n:]
	return out, nil
}

func (r *lpReader) prefixedBytes() ([]byte, error) {
	inner, err := r.prefixed()
	if err != nil {
		return nil, err
	}
	return inner.b, nil
}

// parseSigners decodes a v2/v3/v3.1 scheme value: a length-prefixed
// sequence of signer sub-blocks. v3 and v3.1 signers additionally carry an
// SDK rotation range, which is retained as opaque metadata.
func parseSigners(value []byte, kind SchemeKind) ([]Signer, error) {
	fail := func(reason string, err error) ([]Signer, error) {
		return nil, &SignatureParseError{Scheme: kind.String(), Reason: reason, Err: err}
	}

	outer := &lpReader{b: value}
	signers, err := outer.prefixed()
	if err != nil {
		return fail("reading signer sequence", err)
	}

	withSDK := kind == SchemeV3 || kind == SchemeV31

	var out []Signer
	for !signers.empty() {
		signerBlock, err := signers.prefixed()
		if err != nil {
			return fail(fmt.Sprintf("reading signer #%d", len(out)+1), err)
		}
		signer, err := parseSigner(signerBlock, withSDK)
		if err != nil {
			return fail(fmt.Sprintf("signer #%d", len(out)+1), err)
		}
		out = append(out, signer)
	}
	if len(out) == 0 {
		return fail("scheme block lists no signers", nil)
	}
	return out, nil
}

func parseSigner(r *lpReader, withSDK bool) (Signer, error) {
	var signer Signer

	signedData, err := r.prefixed()
	if err != nil {
		return signer, fmt.Errorf("signed data: %w", err)
	}

	// Digests: (algorithm id, digest) pairs. The digests themselves are
	// verification input, which is out of scope; only structure is checked.
	digests, err := signedData.prefixed()
	if err != nil {
		return signer, fmt.Errorf("digests: %w", err)
	}
	for !digests.empty() {
		if _, err := digests.prefixedBytes(); err != nil {
			return signer, fmt.Errorf("digest record: %w", err)
		}
	}

	certs, err := signedData.prefixed()
	if err != nil {
		return signer, fmt.Errorf("certificates: %w", err)
	}
	for !certs.empty() {
		der, err := certs.prefixedBytes()
		if err != nil {
			return signer, fmt.Errorf("certificate record: %w", err)
		}
		cert, err := ParseCertificate(der)
		if err != nil {
			return signer, err
		}
		signer.Certificates = append(signer.Certificates, cert)
	}
	if len(signer.Certificates) == 0 {
		return signer, fmt.Errorf("signer lists no certificates")
	}

	// v3 signed data carries the rotation SDK range before the attributes.
	if withSDK {
		if signer.MinSDK, err = signedData.u32(); err != nil {
			return signer, fmt.Errorf("signed-data min SDK: %w", err)
		}
		if signer.MaxSDK, err = signedData.u32(); err != nil {
			return signer, fmt.Errorf("signed-data max SDK: %w", err)
		}
	}

	// Additional attributes: (id, value) records, opaque here. Some
	// packers truncate an empty attribute list entirely.
	if !signedData.empty() {
		if _, err := signedData.prefixedBytes(); err != nil {
			return signer, fmt.Errorf("additional attributes: %w", err)
		}
	}

	// The signer-level SDK range must mirror the signed-data copy; both
	// are retained without interpretation.
	if withSDK {
		if _, err := r.u32(); err != nil {
			return signer, fmt.Errorf("signer min SDK: %w", err)
		}
		if _, err := r.u32(); err != nil {
			return signer, fmt.Errorf("signer max SDK: %w", err)
		}
	}

	signatures, err := r.prefixed()
	if err != nil {
		return signer, fmt.Errorf("signatures: %w", err)
	}
	for !signatures.empty() {
		sig, err := signatures.prefixed()
		if err != nil {
			return signer, fmt.Errorf("signature record: %w", err)
		}
		algo, err := sig.u32()
		if err != nil {
			return signer, fmt.Errorf("signature algorithm id: %w", err)
		}
		if _, err := sig.prefixedBytes(); err != nil {
			return signer, fmt.Errorf("signature bytes: %w", err)
		}
		signer.AlgorithmIDs = append(signer.AlgorithmIDs, algo)
	}

	if _, err := r.prefixedBytes(); err != nil {
		return signer, fmt.Errorf("public key: %w", err)
	}

	return signer, nil
}
