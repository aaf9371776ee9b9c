package apk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apkscope/apkscope/pkg/models"
	"github.com/apkscope/apkscope/pkg/sigscan"
)

// NativeParser inspects APKs with this module's own container, manifest
// and signature decoders. It is the chain's primary parser.
type NativeParser struct{}

func (NativeParser) Info() ParserInfo {
	return ParserInfo{
		Name:      "native",
		Version:   "1",
		Available: true,
		Priority:  1,
	}
}

func (NativeParser) CanParse(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".apk", ".xapk":
		return true
	}
	return false
}

func (NativeParser) Parse(path string) (*models.InspectionReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pkg, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	report := &models.InspectionReport{
		FilePath: path,
		Size:     int64(len(data)),
		SHA256:   hex.EncodeToString(sum[:]),
	}

	// The package identity is the one manifest fact a report cannot do
	// without; everything else degrades to its zero value.
	if report.PackageID, err = pkg.PackageName(); err != nil {
		return nil, err
	}
	if label, err := pkg.ApplicationLabel(); err == nil {
		report.AppLabel = label.String()
	}
	report.VersionName, _ = pkg.VersionName()
	report.VersionCode, _ = pkg.VersionCode()
	report.MinSDK, _ = pkg.MinSDKVersion()
	report.TargetSDK, _ = pkg.TargetSDKVersion()
	report.MaxSDK, _ = pkg.MaxSDKVersion()
	report.SharedUserID, _ = pkg.SharedUserID()
	report.MainActivities, _ = pkg.MainActivities()
	report.Activities, _ = pkg.Activities()
	report.Permissions, _ = pkg.Permissions()
	report.Features, _ = pkg.Features()
	report.MultiDex = pkg.IsMultiDex()

	sigs, err := pkg.Signatures()
	if err != nil {
		report.SignatureErrors = append(report.SignatureErrors, err.Error())
	} else {
		report.Signatures, report.SignatureErrors = SignatureSection(sigs)
	}

	return report, nil
}

// SignatureSection flattens a scan report into the serializable model.
func SignatureSection(rep *sigscan.Report) ([]models.SignatureScheme, []string) {
	var schemes []models.SignatureScheme
	for _, s := range rep.Schemes {
		scheme := models.SignatureScheme{Scheme: s.Kind.String()}
		if s.BlockID != 0 {
			scheme.BlockID = fmt.Sprintf("0x%08x", s.BlockID)
		}
		for _, signer := range s.Signers {
			info := models.SignerInfo{
				MinSDK: signer.MinSDK,
				MaxSDK: signer.MaxSDK,
			}
			for _, id := range signer.AlgorithmIDs {
				info.AlgorithmIDs = append(info.AlgorithmIDs, fmt.Sprintf("0x%04x", id))
			}
			for _, cert := range signer.Certificates {
				info.Certificates = append(info.Certificates, models.CertificateInfo{
					Subject:            cert.Subject,
					Issuer:             cert.Issuer,
					SerialNumber:       cert.SerialNumber.String(),
					SignatureAlgorithm: cert.SignatureAlgorithm,
					NotBefore:          cert.NotBefore,
					NotAfter:           cert.NotAfter,
					MD5:                cert.FingerprintMD5(),
					SHA1:               cert.FingerprintSHA1(),
					SHA256:             cert.FingerprintSHA256(),
				})
			}
			scheme.Signers = append(scheme.Signers, info)
		}
		schemes = append(schemes, scheme)
	}

	var soft []string
	for _, e := range rep.SoftErrors {
		soft = append(soft, e.Error())
	}
	return schemes, soft
}
