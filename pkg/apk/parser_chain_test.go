package apk

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkscope/apkscope/pkg/models"
)

func writeAPKFile(t *testing.T, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.apk")
	require.NoError(t, os.WriteFile(path, buildAPK(t, files), 0644))
	return path
}

func TestNativeParserReport(t *testing.T) {
	path := writeAPKFile(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
		"classes.dex":         []byte("dex"),
		"classes2.dex":        []byte("more dex"),
	})

	report, err := NativeParser{}.Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "com.facade.test", report.PackageID)
	assert.Equal(t, "Facade Test", report.AppLabel)
	assert.Equal(t, "2.5.0", report.VersionName)
	assert.Equal(t, int64(250), report.VersionCode)
	assert.Equal(t, 24, report.MinSDK)
	assert.Equal(t, 33, report.TargetSDK)
	assert.Equal(t, 35, report.MaxSDK)
	assert.Equal(t, []string{".Main"}, report.MainActivities)
	assert.True(t, report.MultiDex)
	assert.NotEmpty(t, report.SHA256)
	assert.Positive(t, report.Size)
}

func TestChainUsesNativeParserFirst(t *testing.T) {
	path := writeAPKFile(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
	})

	chain := NewDefaultChain(nil)
	result, err := chain.Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "native", result.Parser)
	assert.Equal(t, "native", result.Report.ParsedWith)
	assert.Empty(t, result.Errors)
}

// brokenParser always fails, for exercising fallback behavior.
type brokenParser struct {
	priority int
}

func (p brokenParser) Info() ParserInfo {
	return ParserInfo{Name: "broken", Available: true, Priority: p.priority}
}
func (brokenParser) CanParse(string) bool { return true }
func (brokenParser) Parse(string) (*models.InspectionReport, error) {
	return nil, fmt.Errorf("always fails")
}

func TestChainFallsBackAndRecordsFailure(t *testing.T) {
	path := writeAPKFile(t, map[string][]byte{
		"AndroidManifest.xml": testManifest(t),
	})

	chain := NewChain(nil)
	chain.Add(&NativeParser{})
	chain.Add(brokenParser{priority: 0}) // ahead of native

	result, err := chain.Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "native", result.Parser)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "broken")
}

func TestChainAllParsersFailing(t *testing.T) {
	chain := NewChain(nil)
	chain.Add(brokenParser{priority: 1})

	_, err := chain.Parse("whatever.apk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "always fails")
}

func TestChainOrderedByPriority(t *testing.T) {
	chain := NewChain(nil)
	chain.Add(brokenParser{priority: 5})
	chain.Add(&NativeParser{})
	chain.Add(&FallbackParser{})

	infos := chain.Parsers()
	require.Len(t, infos, 3)
	assert.Equal(t, "native", infos[0].Name)
	assert.Equal(t, "androidbinary", infos[1].Name)
	assert.Equal(t, "broken", infos[2].Name)
}
