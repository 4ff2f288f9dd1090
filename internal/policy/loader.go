package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPatchFile reads a partial policy from a YAML file. The file uses
// the same shape as Thresholds; only the keys present are applied, so an
// operator override file can be as small as one line.
func LoadPatchFile(path string) (Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Patch{}, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var p Patch
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("failed to parse policy YAML %s: %w", path, err)
	}

	if err := validatePatch(p); err != nil {
		return Patch{}, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return p, nil
}

// validatePatch rejects overrides that are structurally legal but would
// make the policy nonsensical. Out-of-range numerics are not rejected
// here; downstream consumers clamp them.
func validatePatch(p Patch) error {
	for domain, w := range p.DomainWeights {
		if w < 0 {
			return fmt.Errorf("domain weight for %q is negative: %.4f", domain, w)
		}
	}
	for domain, age := range p.MaxSignalAgeSec {
		if age < 0 {
			return fmt.Errorf("max signal age for %q is negative: %.0f", domain, age)
		}
	}
	if p.QualityGate != nil && p.QualityGate.PassThreshold != nil {
		if v := *p.QualityGate.PassThreshold; v < 0 || v > 100 {
			return fmt.Errorf("pass threshold out of range: %.2f (must be 0-100)", v)
		}
	}
	if p.PolicyVersion != nil && *p.PolicyVersion == "" {
		return fmt.Errorf("policy_version must not be empty")
	}
	return nil
}
