package sigscan

import (
	"fmt"
	"sort"
	"strings"

	"go.mozilla.org/pkcs7"

	"github.com/apkscope/apkscope/pkg/zipindex"
)

// v1 signature material: every .SF manifest under META-INF pairs with a
// PKCS#7 envelope of the same base name and one of these extensions.
var v1BlockExtensions = []string{".RSA", ".DSA", ".EC"}

// scanV1 collects JAR-style signatures. Each well-formed pair contributes
// its envelope signers to a single aggregated v1 scheme; pairs that fail
// to decode become soft errors so one broken signature cannot mask the
// rest. No META-INF signature material at all means no v1 scheme.
func scanV1(ix *zipindex.Index, report *Report) {
	pairs := v1Pairs(ix.Names())
	if len(pairs) == 0 {
		return
	}

	var signers []Signer
	for _, blockName := range pairs {
		found, err := parseV1Block(ix, blockName)
		if err != nil {
			report.SoftErrors = append(report.SoftErrors, SoftError{Source: blockName, Err: err})
			continue
		}
		signers = append(signers, found...)
	}
	if len(signers) == 0 {
		return
	}

	report.Schemes = append(report.Schemes, Scheme{Kind: SchemeV1, Signers: signers})
}

// v1Pairs returns the signature block entries that have a matching .SF
// file, sorted by name so scan output is deterministic regardless of
// central directory order.
func v1Pairs(names []string) []string {
	sfBases := make(map[string]bool)
	var blocks []string
	for _, name := range names {
		if !strings.HasPrefix(name, "META-INF/") {
			continue
		}
		upper := strings.ToUpper(name)
		if strings.HasSuffix(upper, ".SF") {
			sfBases[upper[:len(upper)-len(".SF")]] = true
			continue
		}
		for _, ext := range v1BlockExtensions {
			if strings.HasSuffix(upper, ext) {
				blocks = append(blocks, name)
				break
			}
		}
	}

	var paired []string
	for _, name := range blocks {
		upper := strings.ToUpper(name)
		base := upper[:strings.LastIndex(upper, ".")]
		if sfBases[base] {
			paired = append(paired, name)
		}
	}
	sort.Strings(paired)
	return paired
}

// parseV1Block decodes one PKCS#7 envelope into signers. Each envelope
// SignerInfo yields one Signer whose chain starts with the certificate the
// envelope binds it to by serial number, followed by the rest of the
// embedded chain in encoded order.
func parseV1Block(ix *zipindex.Index, name string) ([]Signer, error) {
	data, err := ix.ReadEntry(name)
	if err != nil {
		return nil, err
	}
	envelope, err := pkcs7.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decoding PKCS#7 envelope: %w", err)
	}
	if len(envelope.Certificates) == 0 {
		return nil, fmt.Errorf("envelope carries no certificates")
	}

	var signers []Signer
	for _, info := range envelope.Signers {
		serial := info.IssuerAndSerialNumber.SerialNumber

		var chain []*Certificate
		for _, c := range envelope.Certificates {
			cert := fromX509(c)
			if serial != nil && c.SerialNumber.Cmp(serial) == 0 {
				chain = append([]*Certificate{cert}, chain...)
			} else {
				chain = append(chain, cert)
			}
		}
		signers = append(signers, Signer{Certificates: chain})
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("envelope lists no signers")
	}
	return signers, nil
}
