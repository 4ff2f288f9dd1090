package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempPolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPatchFile_PartialOverride(t *testing.T) {
	path := writeTempPolicy(t, `
quality_gate:
  pass_threshold: 65
domain_weights:
  headlines: 0.3
policy_version: intel-policy-test
`)

	patch, err := LoadPatchFile(path)
	require.NoError(t, err)

	require.NotNil(t, patch.QualityGate)
	require.NotNil(t, patch.QualityGate.PassThreshold)
	assert.Equal(t, 65.0, *patch.QualityGate.PassThreshold)
	assert.Equal(t, 0.3, patch.DomainWeights["headlines"])
	require.NotNil(t, patch.PolicyVersion)
	assert.Equal(t, "intel-policy-test", *patch.PolicyVersion)

	// Unset sections stay nil so the merge leaves them untouched.
	assert.Nil(t, patch.Conflict)
	assert.Nil(t, patch.NoTrade)

	effective := NewStore().Patch(patch)
	assert.Equal(t, 65.0, effective.QualityGate.PassThreshold)
	assert.Equal(t, 20.0, effective.QualityGate.MinActionability)
}

func TestLoadPatchFile_RejectsNegativeWeight(t *testing.T) {
	path := writeTempPolicy(t, `
domain_weights:
  flow: -0.2
`)

	_, err := LoadPatchFile(path)
	assert.ErrorContains(t, err, "negative")
}

func TestLoadPatchFile_RejectsOutOfRangePassThreshold(t *testing.T) {
	path := writeTempPolicy(t, `
quality_gate:
  pass_threshold: 180
`)

	_, err := LoadPatchFile(path)
	assert.ErrorContains(t, err, "pass threshold")
}

func TestLoadPatchFile_MissingFile(t *testing.T) {
	_, err := LoadPatchFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadPatchFile_MalformedYAML(t *testing.T) {
	path := writeTempPolicy(t, "quality_gate: [not a map")
	_, err := LoadPatchFile(path)
	assert.Error(t, err)
}
