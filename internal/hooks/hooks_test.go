package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHookOutputStopReasonShape(t *testing.T) {
	raw := []byte(`{"stopReason":"Validation found issues:\n- 2 TypeScript errors in src/error.ts\n\nConsider fixing these before continuing."}`)
	result := ParseHookOutput(raw)
	require.True(t, result.Valid)
	assert.Equal(t, 2, result.Counts.Errors)
	assert.Equal(t, 0, result.Counts.Warnings)
}

func TestParseHookOutputRejectsUnknownSchema(t *testing.T) {
	raw := []byte(`{"wrongField":"x"}`)
	result := ParseHookOutput(raw)
	require.False(t, result.Valid)
	assert.Equal(t, "Schema validation failed", result.Error)
}

func TestParseHookOutputLegacyStopShape(t *testing.T) {
	raw := []byte(`{"hookSpecificOutput":{"hookEventName":"Stop","additionalContext":"DevAC Status: 5 errors, 3 warnings"}}`)
	result := ParseHookOutput(raw)
	require.True(t, result.Valid)
	assert.Equal(t, 5, result.Counts.Errors)
	assert.Equal(t, 3, result.Counts.Warnings)
}

func TestParseHookOutputUserPromptSubmitRequiresSystemReminder(t *testing.T) {
	raw := []byte(`{"hookSpecificOutput":{"hookEventName":"UserPromptSubmit","additionalContext":"no wrapper here"}}`)
	result := ParseHookOutput(raw)
	require.False(t, result.Valid)
}

func TestParseHookOutputUserPromptSubmitWithWrapper(t *testing.T) {
	raw := []byte(`{"hookSpecificOutput":{"hookEventName":"UserPromptSubmit","additionalContext":"<system-reminder>No issues found</system-reminder>"}}`)
	result := ParseHookOutput(raw)
	require.True(t, result.Valid)
	assert.Equal(t, 0, result.Counts.Errors)
	assert.Equal(t, 0, result.Counts.Warnings)
}

func TestBuildHookOutputStopEmitsNewShapeOnly(t *testing.T) {
	data, err := BuildHookOutput(EventStop, "3 errors, 1 warnings")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stopReason"`)
	assert.NotContains(t, string(data), "hookSpecificOutput")

	parsed := ParseHookOutput(data)
	require.True(t, parsed.Valid)
	assert.Equal(t, 3, parsed.Counts.Errors)
	assert.Equal(t, 1, parsed.Counts.Warnings)
}

func TestBuildHookOutputUserPromptSubmitWrapsSystemReminder(t *testing.T) {
	data, err := BuildHookOutput(EventUserPromptSubmit, "hello")
	require.NoError(t, err)
	assert.Regexp(t, `<system-reminder>[\s\S]*</system-reminder>`, string(data))

	parsed := ParseHookOutput(data)
	require.True(t, parsed.Valid)
}

func TestBuildHookOutputUnsupportedEvent(t *testing.T) {
	_, err := BuildHookOutput(HookEventName("Unknown"), "x")
	require.Error(t, err)
}

func TestParseDiagnosticsTextScenarios(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		errors   int
		warnings int
	}{
		{"status line", "DevAC Status: 5 errors, 3 warnings", 5, 3},
		{"no issues", "No issues found", 0, 0},
		{"uppercase", "5 ERRORS and 3 WARNINGS", 5, 3},
		{"with descriptor word", "2 TypeScript errors in src/error.ts", 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			counts := ParseDiagnosticsText(tc.text)
			assert.Equal(t, tc.errors, counts.Errors)
			assert.Equal(t, tc.warnings, counts.Warnings)
		})
	}
}

func TestCountIssues(t *testing.T) {
	issues := []ValidationIssue{
		{File: "a.ts", Severity: SeverityError, Source: SourceTSC},
		{File: "a.ts", Severity: SeverityError, Source: SourceTSC},
		{File: "b.ts", Severity: SeverityWarning, Source: SourceESLint},
	}
	counts := CountIssues(issues)
	assert.Equal(t, 2, counts.Errors)
	assert.Equal(t, 1, counts.Warnings)
}
