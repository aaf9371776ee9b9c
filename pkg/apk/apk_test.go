package apk

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manifestEncoder is a minimal binary-XML writer: enough to produce the
// manifests the facade queries, with a UTF-16 string pool and string or
// integer attributes.
type manifestEncoder struct {
	strings []string
	index   map[string]uint32
	body    bytes.Buffer
}

func newManifestEncoder() *manifestEncoder {
	return &manifestEncoder{index: make(map[string]uint32)}
}

func (e *manifestEncoder) str(s string) uint32 {
	if idx, ok := e.index[s]; ok {
		return idx
	}
	idx := uint32(len(e.strings))
	e.strings = append(e.strings, s)
	e.index[s] = idx
	return idx
}

type encAttr struct {
	name     uint32
	dataType uint8
	data     uint32
}

func (e *manifestEncoder) strAttr(name, value string) encAttr {
	return encAttr{name: e.str(name), dataType: 0x03, data: e.str(value)}
}

func (e *manifestEncoder) intAttr(name string, v int32) encAttr {
	return encAttr{name: e.str(name), dataType: 0x10, data: uint32(v)}
}

func (e *manifestEncoder) start(tag string, attrs ...encAttr) {
	le := binary.LittleEndian
	nameIdx := e.str(tag)

	chunk := make([]byte, 16+20+len(attrs)*20)
	le.PutUint16(chunk, 0x0102) // start element
	le.PutUint16(chunk[2:], 16)
	le.PutUint32(chunk[4:], uint32(len(chunk)))
	le.PutUint32(chunk[8:], 1)
	le.PutUint32(chunk[12:], 0xFFFFFFFF)

	le.PutUint32(chunk[16:], 0xFFFFFFFF) // namespace
	le.PutUint32(chunk[20:], nameIdx)
	le.PutUint16(chunk[24:], 20) // attribute start
	le.PutUint16(chunk[26:], 20) // attribute size
	le.PutUint16(chunk[28:], uint16(len(attrs)))

	for i, a := range attrs {
		rec := chunk[36+i*20:]
		le.PutUint32(rec, 0xFFFFFFFF)
		le.PutUint32(rec[4:], a.name)
		le.PutUint32(rec[8:], 0xFFFFFFFF)
		le.PutUint16(rec[12:], 8)
		rec[15] = a.dataType
		le.PutUint32(rec[16:], a.data)
	}
	e.body.Write(chunk)
}

func (e *manifestEncoder) end(tag string) {
	le := binary.LittleEndian
	chunk := make([]byte, 24)
	le.PutUint16(chunk, 0x0103) // end element
	le.PutUint16(chunk[2:], 16)
	le.PutUint32(chunk[4:], uint32(len(chunk)))
	le.PutUint32(chunk[8:], 1)
	le.PutUint32(chunk[12:], 0xFFFFFFFF)
	le.PutUint32(chunk[16:], 0xFFFFFFFF)
	le.PutUint32(chunk[20:], e.str(tag))
	e.body.Write(chunk)
}

func (e *manifestEncoder) bytes() []byte {
	le := binary.LittleEndian

	var strData bytes.Buffer
	offsets := make([]uint32, len(e.strings))
	for i, s := range e.strings {
		offsets[i] = uint32(strData.Len())
		units := utf16.Encode([]rune(s))
		var b [2]byte
		le.PutUint16(b[:], uint16(len(units)))
		strData.Write(b[:])
		for _, u := range units {
			le.PutUint16(b[:], u)
			strData.Write(b[:])
		}
		strData.Write([]byte{0, 0})
	}

	stringsStart := 28 + 4*len(e.strings)
	pool := make([]byte, stringsStart)
	le.PutUint16(pool, 0x0001)
	le.PutUint16(pool[2:], 28)
	le.PutUint32(pool[4:], uint32(stringsStart+strData.Len()))
	le.PutUint32(pool[8:], uint32(len(e.strings)))
	le.PutUint32(pool[20:], uint32(stringsStart))
	for i, off := range offsets {
		le.PutUint32(pool[28+4*i:], off)
	}
	pool = append(pool, strData.Bytes()...)

	root := make([]byte, 8)
	le.PutUint16(root, 0x0003)
	le.PutUint16(root[2:], 8)
	le.PutUint32(root[4:], uint32(8+len(pool)+e.body.Len()))

	out := append(root, pool...)
	return append(out, e.body.Bytes()...)
}

// testManifest encodes a launchable manifest for com.facade.test.
func testManifest(t *testing.T) []byte {
	t.Helper()
	e := newManifestEncoder()
	e.start("manifest",
		e.strAttr("package", "com.facade.test"),
		e.strAttr("versionName", "2.5.0"),
		e.intAttr("versionCode", 250),
		e.strAttr("sharedUserId", "com.facade.shared"),
	)
	e.start("uses-sdk",
		e.intAttr("minSdkVersion", 24),
		e.intAttr("targetSdkVersion", 33),
		e.intAttr("maxSdkVersion", 35),
	)
	e.end("uses-sdk")
	e.start("uses-permission", e.strAttr("name", "android.permission.CAMERA"))
	e.end("uses-permission")
	e.start("uses-feature", e.strAttr("name", "android.hardware.camera"))
	e.end("uses-feature")
	e.start("application", e.strAttr("label", "Facade Test"))
	e.start("activity", e.strAttr("name", ".Main"))
	e.start("intent-filter")
	e.start("action", e.strAttr("name", "android.intent.action.MAIN"))
	e.end("action")
	e.start("category", e.strAttr("name", "android.intent.category.LAUNCHER"))
	e.end("category")
	e.end("intent-filter")
	e.end("activity")
	e.start("activity", e.strAttr("name", ".Other"))
	e.end("activity")
	e.end("application")
	e.end("manifest")
	return e.bytes()
}

func buildAPK(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFacadeQueries(t *testing.T) {
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
		"classes.dex":         []byte("dex one"),
		"classes2.dex":        []byte("dex two"),
	}))
	require.NoError(t, err)

	name, err := pkg.PackageName()
	require.NoError(t, err)
	assert.Equal(t, "com.facade.test", name)

	min, err := pkg.MinSDKVersion()
	require.NoError(t, err)
	assert.Equal(t, 24, min)
	target, err := pkg.TargetSDKVersion()
	require.NoError(t, err)
	assert.Equal(t, 33, target)
	max, err := pkg.MaxSDKVersion()
	require.NoError(t, err)
	assert.Equal(t, 35, max)

	label, err := pkg.ApplicationLabel()
	require.NoError(t, err)
	assert.Equal(t, "Facade Test", label.String())

	versionName, err := pkg.VersionName()
	require.NoError(t, err)
	assert.Equal(t, "2.5.0", versionName)
	versionCode, err := pkg.VersionCode()
	require.NoError(t, err)
	assert.Equal(t, int64(250), versionCode)

	shared, err := pkg.SharedUserID()
	require.NoError(t, err)
	assert.Equal(t, "com.facade.shared", shared)

	mains, err := pkg.MainActivities()
	require.NoError(t, err)
	assert.Equal(t, []string{".Main"}, mains)

	activities, err := pkg.Activities()
	require.NoError(t, err)
	assert.Equal(t, []string{".Main", ".Other"}, activities)

	perms, err := pkg.Permissions()
	require.NoError(t, err)
	assert.Equal(t, []string{"android.permission.CAMERA"}, perms)

	features, err := pkg.Features()
	require.NoError(t, err)
	assert.Equal(t, []string{"android.hardware.camera"}, features)

	assert.True(t, pkg.IsMultiDex())
}

func TestSingleDexIsNotMultiDex(t *testing.T) {
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
		"classes.dex":         []byte("dex"),
		"lib/classes2.dex":    []byte("not a root dex"),
	}))
	require.NoError(t, err)
	assert.False(t, pkg.IsMultiDex())
}

func TestQueriesAreCached(t *testing.T) {
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
	}))
	require.NoError(t, err)

	first, err := pkg.Signatures()
	require.NoError(t, err)
	second, err := pkg.Signatures()
	require.NoError(t, err)
	assert.Same(t, first, second)

	m1, err := pkg.Manifest()
	require.NoError(t, err)
	m2, err := pkg.Manifest()
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

func TestFailingQueryDoesNotPoisonOthers(t *testing.T) {
	// No manifest at all: manifest queries fail, signature scan still
	// answers.
	pkg, err := OpenBytes(buildAPK(t, map[string][]byte{
		"classes.dex": []byte("dex"),
	}))
	require.NoError(t, err)

	_, err = pkg.PackageName()
	require.Error(t, err)
	// Cached failure: same error again.
	_, err2 := pkg.PackageName()
	assert.Equal(t, err, err2)

	report, err := pkg.Signatures()
	require.NoError(t, err)
	assert.Empty(t, report.Schemes)
}

func TestXAPKFallsThroughToInnerAPK(t *testing.T) {
	inner := buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
	})
	outer := buildAPK(t, map[string][]byte{
		"manifest.json":       []byte(`{"package_name":"com.facade.test","name":"Facade Test"}`),
		"com.facade.test.apk": inner,
		"icon.png":            []byte("outer icon"),
	})

	pkg, err := OpenBytes(outer)
	require.NoError(t, err)

	name, err := pkg.PackageName()
	require.NoError(t, err)
	assert.Equal(t, "com.facade.test", name)
}
