package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"backend_stm/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RunnerState is the lifecycle of a verification session.
type RunnerState int

const (
	// StateAwaitingInput: the runner is waiting for one measured value.
	StateAwaitingInput RunnerState = iota
	// StateSummary: every step is done, only finalization remains.
	StateSummary
	// StateSaved: the verification is persisted, the runner is spent.
	StateSaved
)

var (
	// ErrInvalidValue marks a rejected step: empty or non-numeric input.
	// The runner stays on the same step, nothing is recorded.
	ErrInvalidValue = errors.New("invalid measured value")

	// ErrNotAwaitingInput is returned for a step submitted outside AwaitingInput.
	ErrNotAwaitingInput = errors.New("runner is not awaiting input")

	// ErrNotInSummary is returned for a finalize outside Summary.
	ErrNotInSummary = errors.New("runner is not in summary state")
)

// SessionInfo carries the metadata fixed when the operator starts a session.
type SessionInfo struct {
	ProfileName      string                    `json:"profile_name"`
	TechnicianName   string                    `json:"technician_name"`
	Instrument       models.InstrumentSnapshot `json:"instrument"`
	VisualInspection models.VisualInspection   `json:"visual_inspection"`
}

// Step describes the measurement currently awaited.
type Step struct {
	TestName    string              `json:"test_name"`
	Parameter   string              `json:"parameter"`
	AppliedPart *models.AppliedPart `json:"applied_part,omitempty"`
	LimitText   string              `json:"limit_text"`
}

// TestRunner walks a profile's ordered tests against one device, expanding
// applied-part tests into one step per part and skipping them entirely when
// the device has none. It is strictly sequential and driven one step at a
// time by a single operator.
type TestRunner struct {
	db      *gorm.DB
	profile models.VerificationProfile
	device  models.Device
	session SessionInfo

	// appliedParts is snapshotted at session start; later edits to the
	// device do not affect a running session.
	appliedParts []models.AppliedPart

	state     RunnerState
	testIndex int
	partIndex int
	results   []models.TestResult
}

// NewTestRunner builds a runner positioned on the first applicable step, or
// directly in Summary when no test applies.
func NewTestRunner(db *gorm.DB, profile models.VerificationProfile, device models.Device, session SessionInfo) *TestRunner {
	parts, err := device.AppliedParts()
	if err != nil {
		// Same treatment as the pre-check: an unreadable blob counts as
		// zero applied parts.
		log.Printf("Device %s: unreadable applied parts blob, assuming none: %v", device.SerialNumber, err)
		parts = nil
	}

	r := &TestRunner{
		db:           db,
		profile:      profile,
		device:       device,
		session:      session,
		appliedParts: parts,
		testIndex:    -1,
		partIndex:    -1,
	}
	r.advance()
	return r
}

// State reports the runner lifecycle state.
func (r *TestRunner) State() RunnerState { return r.state }

// Results returns the recorded results in execution order.
func (r *TestRunner) Results() []models.TestResult {
	out := make([]models.TestResult, len(r.results))
	copy(out, r.results)
	return out
}

// CurrentStep describes the awaited measurement, false outside AwaitingInput.
func (r *TestRunner) CurrentStep() (Step, bool) {
	if r.state != StateAwaitingInput {
		return Step{}, false
	}
	test := r.profile.Tests[r.testIndex]
	step := Step{TestName: test.Name, Parameter: test.Parameter}

	limitKey := models.GenericLimitKey
	if test.IsAppliedPartTest {
		part := r.appliedParts[r.partIndex]
		step.AppliedPart = &part
		limitKey = models.LimitKeyForPartType(part.PartType)
	}
	step.LimitText = limitText(test.Limits, limitKey)
	return step, true
}

// Submit validates one measured value and advances the runner. Empty or
// non-numeric input (after normalizing a comma decimal separator) returns
// ErrInvalidValue and leaves the runner in place.
func (r *TestRunner) Submit(raw string) error {
	if r.state != StateAwaitingInput {
		return ErrNotAwaitingInput
	}

	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if value == "" {
		return ErrInvalidValue
	}
	measured, err := decimal.NewFromString(value)
	if err != nil {
		return ErrInvalidValue
	}

	test := r.profile.Tests[r.testIndex]

	limitKey := models.GenericLimitKey
	resultName := fmt.Sprintf("%s (%s)", test.Name, test.Parameter)
	if test.IsAppliedPartTest {
		part := r.appliedParts[r.partIndex]
		limitKey = models.LimitKeyForPartType(part.PartType)
		resultName = fmt.Sprintf("%s - %s", test.Name, part.Name)
	}

	passed := true
	text := "not specified"
	if limit, ok := test.Limits[limitKey]; ok {
		if limit.HighValue != nil {
			// Inclusive upper bound, no lower bound.
			passed = measured.LessThanOrEqual(decimal.NewFromFloat(*limit.HighValue))
			text = fmt.Sprintf("≤ %s %s", formatLimit(*limit.HighValue), limit.Unit)
		} else {
			text = fmt.Sprintf("N/A (measured in %s)", limit.Unit)
		}
	}

	r.results = append(r.results, models.TestResult{
		Name:   resultName,
		Limit:  text,
		Value:  value,
		Passed: passed,
	})

	if test.IsAppliedPartTest && r.partIndex+1 < len(r.appliedParts) {
		r.partIndex++
		return nil
	}
	r.advance()
	return nil
}

// advance moves to the next applicable test, entering Summary when the
// profile is exhausted. Applied-part tests are skipped silently when the
// device snapshot has zero parts.
func (r *TestRunner) advance() {
	for {
		r.testIndex++
		if r.testIndex >= len(r.profile.Tests) {
			r.state = StateSummary
			return
		}
		test := r.profile.Tests[r.testIndex]
		if test.IsAppliedPartTest {
			if len(r.appliedParts) == 0 {
				continue
			}
			r.partIndex = 0
		} else {
			r.partIndex = -1
		}
		r.state = StateAwaitingInput
		return
	}
}

// Finalize computes the overall outcome, persists the verification record
// and recomputes the device's next verification date. The runner then
// accepts no further actions.
func (r *TestRunner) Finalize() (*models.Verification, error) {
	if r.state != StateSummary {
		return nil, ErrNotInSummary
	}

	overall := models.StatusPassed
	for _, res := range r.results {
		if !res.Passed {
			overall = models.StatusFailed
			break
		}
	}

	verificationSvc := NewVerificationService(r.db)
	verification, err := verificationSvc.SaveVerification(
		r.device.ID, r.session.ProfileName, r.results, overall,
		r.session.VisualInspection, r.session.Instrument, r.session.TechnicianName, "")
	if err != nil {
		return nil, err
	}

	// Scheduling is best effort: a failed date update never voids the
	// verification just saved.
	if err := NewDeviceService(r.db).UpdateNextVerificationDate(r.device.ID); err != nil {
		log.Printf("Unable to update next verification date for device %d: %v", r.device.ID, err)
	}

	r.state = StateSaved
	return verification, nil
}

// OverallStatus previews the outcome computed so far.
func (r *TestRunner) OverallStatus() string {
	for _, res := range r.results {
		if !res.Passed {
			return models.StatusFailed
		}
	}
	return models.StatusPassed
}

func limitText(limits map[string]models.Limit, key string) string {
	limit, ok := limits[key]
	if !ok {
		return "not specified"
	}
	if limit.HighValue == nil {
		return fmt.Sprintf("N/A (measured in %s)", limit.Unit)
	}
	return fmt.Sprintf("≤ %s %s", formatLimit(*limit.HighValue), limit.Unit)
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Today returns the current date in store format.
func Today() string {
	return time.Now().Format(models.DateLayout)
}
