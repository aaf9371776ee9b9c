// Package apk is the high-level facade over the lower layers: it opens an
// APK once and answers manifest and signature queries with per-query
// caching. It also carries the parser chain and icon extraction used by
// the command line tools.
package apk

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/apkscope/apkscope/pkg/axml"
	"github.com/apkscope/apkscope/pkg/sigscan"
	"github.com/apkscope/apkscope/pkg/zipindex"
)

const manifestEntry = "AndroidManifest.xml"

// cached computes a query result exactly once and publishes it after the
// computation finishes, so concurrent callers of one Package never observe
// a half-built value. Failures are cached the same way; one failing query
// does not poison the others.
type cached[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (c *cached[T]) get(compute func() (T, error)) (T, error) {
	c.once.Do(func() {
		c.val, c.err = compute()
	})
	return c.val, c.err
}

// Package is an opened APK. All queries are safe for concurrent use and
// cost their parse exactly once per instance.
type Package struct {
	ix   *zipindex.Index
	path string

	manifest   cached[*axml.Manifest]
	pkgName    cached[string]
	minSDK     cached[int]
	targetSDK  cached[int]
	maxSDK     cached[int]
	label      cached[axml.Value]
	mainActs   cached[[]string]
	versName   cached[string]
	versCode   cached[int64]
	sharedUser cached[string]
	perms      cached[[]string]
	features   cached[[]string]
	activities cached[[]string]
	multiDex   cached[bool]
	sigs       cached[*sigscan.Report]
}

// Open maps the file at path into a Package.
func Open(path string) (*Package, error) {
	ix, err := zipindex.Open(path)
	if err != nil {
		return nil, err
	}
	return newPackage(ix, path), nil
}

// OpenBytes wraps an in-memory APK.
func OpenBytes(data []byte) (*Package, error) {
	ix, err := zipindex.New(data)
	if err != nil {
		return nil, err
	}
	return newPackage(ix, ""), nil
}

func newPackage(ix *zipindex.Index, path string) *Package {
	// XAPK bundles wrap the real APK: no manifest at the top level, but a
	// manifest.json naming the inner package. Manifest and signature
	// queries then apply to the inner APK.
	if _, ok := ix.Entry(manifestEntry); !ok {
		if inner := innerAPK(ix); inner != nil {
			ix = inner
		}
	}
	return &Package{ix: ix, path: path}
}

// xapkManifest is the subset of an XAPK's manifest.json this package
// needs: the identity of the APK nested inside the bundle.
type xapkManifest struct {
	PackageName string `json:"package_name"`
}

func innerAPK(ix *zipindex.Index) *zipindex.Index {
	meta, err := ix.ReadEntry("manifest.json")
	if err != nil {
		return nil
	}
	var m xapkManifest
	if err := json.Unmarshal(meta, &m); err != nil || m.PackageName == "" {
		return nil
	}
	data, err := ix.ReadEntry(m.PackageName + ".apk")
	if err != nil {
		return nil
	}
	inner, err := zipindex.New(data)
	if err != nil {
		return nil
	}
	return inner
}

// Index exposes the underlying container, for callers that need raw
// entries (icon extraction, dex listing).
func (p *Package) Index() *zipindex.Index {
	return p.ix
}

// Path returns the file path the package was opened from, empty for
// in-memory packages.
func (p *Package) Path() string {
	return p.path
}

// Manifest returns the decoded AndroidManifest.xml.
func (p *Package) Manifest() (*axml.Manifest, error) {
	return p.manifest.get(func() (*axml.Manifest, error) {
		data, err := p.ix.ReadEntry(manifestEntry)
		if err != nil {
			return nil, err
		}
		return axml.Decode(data)
	})
}

// PackageName returns the manifest's package attribute.
func (p *Package) PackageName() (string, error) {
	return p.pkgName.get(func() (string, error) {
		m, err := p.Manifest()
		if err != nil {
			return "", err
		}
		return m.PackageName()
	})
}

// MinSDKVersion returns the declared minimum SDK, defaulting to 1 when
// the manifest is silent.
func (p *Package) MinSDKVersion() (int, error) {
	return p.minSDK.get(func() (int, error) {
		m, err := p.Manifest()
		if err != nil {
			return 0, err
		}
		return m.MinSDKVersion(), nil
	})
}

// TargetSDKVersion returns the declared target SDK, falling back to the
// minimum SDK.
func (p *Package) TargetSDKVersion() (int, error) {
	return p.targetSDK.get(func() (int, error) {
		m, err := p.Manifest()
		if err != nil {
			return 0, err
		}
		return m.TargetSDKVersion(), nil
	})
}

// MaxSDKVersion returns the declared maximum SDK, 0 when undeclared.
func (p *Package) MaxSDKVersion() (int, error) {
	return p.maxSDK.get(func() (int, error) {
		m, err := p.Manifest()
		if err != nil {
			return 0, err
		}
		return m.MaxSDKVersion(), nil
	})
}

// ApplicationLabel returns the application label as its typed manifest
// value; resource references come back unresolved.
func (p *Package) ApplicationLabel() (axml.Value, error) {
	return p.label.get(func() (axml.Value, error) {
		m, err := p.Manifest()
		if err != nil {
			return axml.Value{}, err
		}
		return m.ApplicationLabel()
	})
}

// MainActivities returns the launchable activities in document order.
func (p *Package) MainActivities() ([]string, error) {
	return p.mainActs.get(func() ([]string, error) {
		m, err := p.Manifest()
		if err != nil {
			return nil, err
		}
		return m.MainActivities(), nil
	})
}

// VersionName returns the manifest's versionName, empty when undeclared.
func (p *Package) VersionName() (string, error) {
	return p.versName.get(func() (string, error) {
		return p.rootString("versionName")
	})
}

// VersionCode returns the manifest's versionCode, 0 when undeclared.
func (p *Package) VersionCode() (int64, error) {
	return p.versCode.get(func() (int64, error) {
		m, err := p.Manifest()
		if err != nil {
			return 0, err
		}
		v, ok := m.Attr("manifest", "versionCode")
		if !ok {
			return 0, nil
		}
		if v.Kind == axml.KindString {
			n, err := strconv.ParseInt(v.Str, 10, 64)
			if err != nil {
				return 0, nil
			}
			return n, nil
		}
		return int64(v.Int()), nil
	})
}

// SharedUserID returns the manifest's sharedUserId, empty when undeclared.
func (p *Package) SharedUserID() (string, error) {
	return p.sharedUser.get(func() (string, error) {
		return p.rootString("sharedUserId")
	})
}

func (p *Package) rootString(attr string) (string, error) {
	m, err := p.Manifest()
	if err != nil {
		return "", err
	}
	v, ok := m.Attr("manifest", attr)
	if !ok {
		return "", nil
	}
	return v.String(), nil
}

// Permissions returns every <uses-permission> name in document order.
func (p *Package) Permissions() ([]string, error) {
	return p.perms.get(func() ([]string, error) {
		return p.namedElements("uses-permission")
	})
}

// Features returns every <uses-feature> name in document order.
func (p *Package) Features() ([]string, error) {
	return p.features.get(func() ([]string, error) {
		return p.namedElements("uses-feature")
	})
}

// Activities returns the android:name of every declared activity,
// launchable or not.
func (p *Package) Activities() ([]string, error) {
	return p.activities.get(func() ([]string, error) {
		return p.namedElements("activity")
	})
}

func (p *Package) namedElements(tag string) ([]string, error) {
	m, err := p.Manifest()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, v := range m.AllAttrs(tag, "name") {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// IsMultiDex reports whether the archive ships more than one classes.dex.
func (p *Package) IsMultiDex() bool {
	multi, _ := p.multiDex.get(func() (bool, error) {
		count := 0
		for _, name := range p.ix.Names() {
			if isDexName(name) {
				count++
			}
		}
		return count > 1, nil
	})
	return multi
}

func isDexName(name string) bool {
	if !strings.HasPrefix(name, "classes") || !strings.HasSuffix(name, ".dex") || strings.Contains(name, "/") {
		return false
	}
	middle := name[len("classes") : len(name)-len(".dex")]
	if middle == "" {
		return true
	}
	_, err := strconv.Atoi(middle)
	return err == nil
}

// Signatures scans every signing scheme present in the archive.
func (p *Package) Signatures() (*sigscan.Report, error) {
	return p.sigs.get(func() (*sigscan.Report, error) {
		return sigscan.Scan(p.ix)
	})
}
