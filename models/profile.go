package models

// DateLayout is the store format for calendar dates. Dates are kept as
// plain strings so archive exports stay byte-compatible across
// installations.
const DateLayout = "2006-01-02"

// Limit keys inside a test definition. A test carries either the generic
// key or one key per applied-part type.
const (
	GenericLimitKey = "::ST"

	PartTypeB  = "B"
	PartTypeBF = "BF"
	PartTypeCF = "CF"
)

// LimitKeyForPartType maps an applied-part type to its limit key.
func LimitKeyForPartType(partType string) string {
	return "::" + partType
}

// Limit is one acceptance threshold. A nil HighValue marks an
// informational measurement that is recorded but never judged.
type Limit struct {
	Unit      string   `json:"unit"`
	HighValue *float64 `json:"high_value"`
}

// Test is one step of a verification profile. An applied-part test expands
// into one measurement per applied part of the device under test.
type Test struct {
	Name              string           `json:"name"`
	Parameter         string           `json:"parameter"`
	IsAppliedPartTest bool             `json:"is_applied_part_test"`
	Limits            map[string]Limit `json:"limits"`
}

// VerificationProfile is an ordered list of tests for one device class.
type VerificationProfile struct {
	Name  string `json:"name"`
	Tests []Test `json:"tests"`
}

// NeedsAppliedParts reports whether any test of the profile expands over
// the device's applied parts.
func (p VerificationProfile) NeedsAppliedParts() bool {
	for _, t := range p.Tests {
		if t.IsAppliedPartTest {
			return true
		}
	}
	return false
}

// AppliedPart is one patient-connected part of a device.
type AppliedPart struct {
	Name     string `json:"name"`
	PartType string `json:"part_type"`
}

// TestResult is one recorded measurement with its verdict.
type TestResult struct {
	Name   string `json:"name"`
	Limit  string `json:"limit"`
	Value  string `json:"value"`
	Passed bool   `json:"passed"`
}

// ChecklistItem is one entry of the visual inspection checklist.
type ChecklistItem struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
}

// VisualInspection is the operator's visual check recorded with a session.
type VisualInspection struct {
	Checklist []ChecklistItem `json:"checklist"`
	Notes     string          `json:"notes,omitempty"`
}

// InstrumentSnapshot freezes the measuring instrument's identity at the
// moment a verification is recorded.
type InstrumentSnapshot struct {
	Instrument string `json:"instrument"`
	Serial     string `json:"serial"`
	Version    string `json:"version"`
	CalDate    string `json:"cal_date"`
}
