package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViolationIsHard(t *testing.T) {
	critical := Violation{Severity: SeverityCritical}
	warning := Violation{Severity: SeverityWarning}

	assert.True(t, critical.IsHard())
	assert.False(t, warning.IsHard())
}

func TestViolationsCriticalCount(t *testing.T) {
	vs := Violations{
		{Severity: SeverityCritical},
		{Severity: SeverityWarning},
		{Severity: SeverityCritical},
		{Severity: SeverityInfo},
	}
	assert.Equal(t, 2, vs.CriticalCount())
}

func TestViolationsSoftScoreIgnoresCritical(t *testing.T) {
	vs := Violations{
		{Severity: SeverityCritical, Weight: 100},
		{Severity: SeverityWarning, Weight: 5},
		{Severity: SeverityInfo, Weight: 1.5},
	}
	assert.InDelta(t, 6.5, vs.SoftScore(), 0.0001)
}

func TestViolationsEmpty(t *testing.T) {
	var vs Violations
	assert.Equal(t, 0, vs.CriticalCount())
	assert.Equal(t, 0.0, vs.SoftScore())
}
