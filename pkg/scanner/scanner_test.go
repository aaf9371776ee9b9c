package scanner

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apkscope/apkscope/pkg/models"
)

// encodeManifest produces a binary XML document containing nothing but
// <manifest package="..."/>, which is all a scan report needs to count a
// file as parsed.
func encodeManifest(pkg string) []byte {
	le := binary.LittleEndian
	strings := []string{"package", pkg, "manifest"}

	var strData bytes.Buffer
	offsets := make([]uint32, len(strings))
	for i, s := range strings {
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

	stringsStart := 28 + 4*len(strings)
	pool := make([]byte, stringsStart)
	le.PutUint16(pool, 0x0001) // string pool
	le.PutUint16(pool[2:], 28)
	le.PutUint32(pool[4:], uint32(stringsStart+strData.Len()))
	le.PutUint32(pool[8:], uint32(len(strings)))
	le.PutUint32(pool[20:], uint32(stringsStart))
	for i, off := range offsets {
		le.PutUint32(pool[28+4*i:], off)
	}
	pool = append(pool, strData.Bytes()...)

	start := make([]byte, 16+20+20)
	le.PutUint16(start, 0x0102) // start element
	le.PutUint16(start[2:], 16)
	le.PutUint32(start[4:], uint32(len(start)))
	le.PutUint32(start[8:], 1)
	le.PutUint32(start[12:], 0xFFFFFFFF)
	le.PutUint32(start[16:], 0xFFFFFFFF)
	le.PutUint32(start[20:], 2) // "manifest"
	le.PutUint16(start[24:], 20)
	le.PutUint16(start[26:], 20)
	le.PutUint16(start[28:], 1)
	le.PutUint32(start[36:], 0xFFFFFFFF)
	le.PutUint32(start[40:], 0) // "package"
	le.PutUint32(start[44:], 0xFFFFFFFF)
	le.PutUint16(start[48:], 8)
	start[51] = 0x03 // string value
	le.PutUint32(start[52:], 1)

	end := make([]byte, 24)
	le.PutUint16(end, 0x0103) // end element
	le.PutUint16(end[2:], 16)
	le.PutUint32(end[4:], uint32(len(end)))
	le.PutUint32(end[8:], 1)
	le.PutUint32(end[12:], 0xFFFFFFFF)
	le.PutUint32(end[16:], 0xFFFFFFFF)
	le.PutUint32(end[20:], 2)

	body := len(pool) + len(start) + len(end)
	root := make([]byte, 8)
	le.PutUint16(root, 0x0003) // xml document
	le.PutUint16(root[2:], 8)
	le.PutUint32(root[4:], uint32(8+body))

	out := append(root, pool...)
	out = append(out, start...)
	return append(out, end...)
}

func writeAPK(t *testing.T, path, pkg string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "AndroidManifest.xml", Method: zip.Deflate})
	require.NoError(t, err)
	_, err = w.Write(encodeManifest(pkg))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func testConfig() *models.Config {
	return &models.Config{
		Scanning: models.ScanningConfig{
			Recursive:      true,
			IncludePattern: []string{"*.apk", "*.xapk"},
			Workers:        2,
		},
		Output: models.OutputConfig{Format: "text"},
	}
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeAPK(t, filepath.Join(dir, "beta.apk"), "com.scan.beta")
	writeAPK(t, filepath.Join(dir, "alpha.apk"), "com.scan.alpha")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an apk"), 0644))

	s := New(testConfig(), zap.NewNop().Sugar())
	result, err := s.Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 2, result.Parsed)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Reports, 2)
	assert.Equal(t, "com.scan.alpha", result.Reports[0].PackageID)
	assert.Equal(t, "com.scan.beta", result.Reports[1].PackageID)
}

func TestScanCountsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writeAPK(t, filepath.Join(dir, "good.apk"), "com.scan.good")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.apk"), []byte("junk"), 0644))

	s := New(testConfig(), zap.NewNop().Sugar())
	result, err := s.Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 1, result.Parsed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "bad.apk")
}

func TestScanNonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeAPK(t, filepath.Join(dir, "top.apk"), "com.scan.top")
	writeAPK(t, filepath.Join(sub, "deep.apk"), "com.scan.deep")

	cfg := testConfig()
	cfg.Scanning.Recursive = false
	s := New(cfg, zap.NewNop().Sugar())
	result, err := s.Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalFiles)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "com.scan.top", result.Reports[0].PackageID)
}

func TestScanExcludePatternWins(t *testing.T) {
	dir := t.TempDir()
	writeAPK(t, filepath.Join(dir, "keep.apk"), "com.scan.keep")
	writeAPK(t, filepath.Join(dir, "skip-debug.apk"), "com.scan.skip")

	cfg := testConfig()
	cfg.Scanning.ExcludePattern = []string{"*-debug.apk"}
	s := New(cfg, zap.NewNop().Sugar())
	result, err := s.Scan(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalFiles)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "com.scan.keep", result.Reports[0].PackageID)
}

func TestScanSymlinkedFiles(t *testing.T) {
	outside := t.TempDir()
	writeAPK(t, filepath.Join(outside, "real.apk"), "com.scan.linked")

	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(outside, "real.apk"), filepath.Join(dir, "link.apk")))

	cfg := testConfig()
	s := New(cfg, zap.NewNop().Sugar())
	result, err := s.Scan(dir)
	require.NoError(t, err)
	assert.Zero(t, result.TotalFiles)

	cfg.Scanning.FollowSymlinks = true
	result, err = New(cfg, zap.NewNop().Sugar()).Scan(dir)
	require.NoError(t, err)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "com.scan.linked", result.Reports[0].PackageID)
}

func TestScanDoesNotDescendSymlinkedDirectories(t *testing.T) {
	outside := t.TempDir()
	writeAPK(t, filepath.Join(outside, "real.apk"), "com.scan.hidden")

	dir := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "linkdir")))

	cfg := testConfig()
	cfg.Scanning.FollowSymlinks = true
	result, err := New(cfg, zap.NewNop().Sugar()).Scan(dir)
	require.NoError(t, err)

	// Directory links are never walked into, even with FollowSymlinks.
	assert.Zero(t, result.TotalFiles)
}

func TestScanEmptyDirectory(t *testing.T) {
	s := New(testConfig(), zap.NewNop().Sugar())
	result, err := s.Scan(t.TempDir())
	require.NoError(t, err)

	assert.Zero(t, result.TotalFiles)
	assert.Zero(t, result.Parsed)
	assert.Empty(t, result.Reports)
}
