package apk

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	abapk "github.com/shogo82148/androidbinary/apk"

	"github.com/apkscope/apkscope/pkg/models"
)

// FallbackParser inspects APKs through the androidbinary library. It runs
// behind the native parser and catches files the native decoder rejects,
// at the cost of a shallower report: no signature section, no activity
// enumeration.
type FallbackParser struct{}

func (FallbackParser) Info() ParserInfo {
	return ParserInfo{
		Name:      "androidbinary",
		Version:   "1.0.5",
		Available: true,
		Priority:  2,
	}
}

func (FallbackParser) CanParse(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".apk"
}

func (FallbackParser) Parse(path string) (*models.InspectionReport, error) {
	pkg, err := abapk.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	sum, err := fileSHA256(path)
	if err != nil {
		return nil, err
	}

	manifest := pkg.Manifest()
	report := &models.InspectionReport{
		FilePath:  path,
		Size:      stat.Size(),
		SHA256:    sum,
		PackageID: manifest.Package.MustString(),
	}

	if label, err := manifest.App.Label.String(); err == nil {
		report.AppLabel = label
	}
	if name, err := manifest.VersionName.String(); err == nil {
		report.VersionName = name
	}
	if code, err := manifest.VersionCode.Int32(); err == nil {
		report.VersionCode = int64(code)
	}
	if min, err := manifest.SDK.Min.Int32(); err == nil {
		report.MinSDK = int(min)
	} else {
		report.MinSDK = 1
	}
	if target, err := manifest.SDK.Target.Int32(); err == nil {
		report.TargetSDK = int(target)
	} else {
		report.TargetSDK = report.MinSDK
	}
	if max, err := manifest.SDK.Max.Int32(); err == nil {
		report.MaxSDK = int(max)
	}
	for _, perm := range manifest.UsesPermissions {
		if name, err := perm.Name.String(); err == nil && name != "" {
			report.Permissions = append(report.Permissions, name)
		}
	}
	if main, err := pkg.MainActivity(); err == nil && main != "" {
		report.MainActivities = []string{main}
	}

	return report, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
