// Package hooks implements the adapter hook output contract (§6): the JSON
// shapes an external hook caller exchanges with the core, and the
// diagnostics-text parsing that extracts error/warning counts from a
// validator's free-form message. Nothing here formats output for a
// specific IDE or CLI; it only defines and validates the wire contract.
package hooks

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
)

// HookEventName identifies which hook invocation produced an output
// document.
type HookEventName string

const (
	// EventUserPromptSubmit carries additionalContext back into the next
	// prompt turn.
	EventUserPromptSubmit HookEventName = "UserPromptSubmit"
	// EventStop signals the caller should halt, carrying a human-readable
	// reason.
	EventStop HookEventName = "Stop"
)

// HookSpecificOutput is the event-scoped payload used by the
// additionalContext-carrying shape.
type HookSpecificOutput struct {
	HookEventName     HookEventName `json:"hookEventName"`
	AdditionalContext string        `json:"additionalContext"`
}

// HookOutput is the UTF-8 JSON document exchanged with a hook caller. Only
// one of StopReason or HookSpecificOutput is set on any given instance.
type HookOutput struct {
	StopReason         string              `json:"stopReason,omitempty"`
	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// DiagnosticCounts is the error/warning tally extracted from a diagnostics
// message.
type DiagnosticCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// ParseResult is ParseHookOutput's return value.
type ParseResult struct {
	Valid  bool             `json:"valid"`
	Counts DiagnosticCounts `json:"counts,omitempty"`
	Error  string           `json:"error,omitempty"`
}

var systemReminderPattern = regexp.MustCompile(`(?s)<system-reminder>.*</system-reminder>`)

// rawHookOutput mirrors HookOutput but keeps hookSpecificOutput untyped on
// HookEventName so the legacy Stop-shaped document (hookSpecificOutput with
// hookEventName="Stop") round-trips without a strict enum match.
type rawHookOutput struct {
	StopReason         string `json:"stopReason"`
	HookSpecificOutput *struct {
		HookEventName     string `json:"hookEventName"`
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput"`
}

// ParseHookOutput accepts both the legacy
// hookSpecificOutput.hookEventName="Stop" shape and the newer top-level
// stopReason shape, extracts the human-readable message from whichever is
// present, and runs it through ParseDiagnosticsText. A document matching
// neither shape, or a UserPromptSubmit document whose additionalContext
// isn't wrapped in <system-reminder> tags, is reported invalid rather than
// returning an error value — malformed hook output is an expected,
// recoverable input, not a caller bug.
func ParseHookOutput(raw []byte) *ParseResult {
	var parsed rawHookOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ParseResult{Valid: false, Error: "Schema validation failed"}
	}

	var message string
	switch {
	case parsed.StopReason != "":
		message = parsed.StopReason
	case parsed.HookSpecificOutput != nil && parsed.HookSpecificOutput.HookEventName != "":
		hso := parsed.HookSpecificOutput
		if hso.HookEventName != string(EventStop) && hso.HookEventName != string(EventUserPromptSubmit) {
			return &ParseResult{Valid: false, Error: "Schema validation failed"}
		}
		if hso.HookEventName == string(EventUserPromptSubmit) && !systemReminderPattern.MatchString(hso.AdditionalContext) {
			return &ParseResult{Valid: false, Error: "Schema validation failed"}
		}
		message = hso.AdditionalContext
	default:
		return &ParseResult{Valid: false, Error: "Schema validation failed"}
	}

	return &ParseResult{Valid: true, Counts: ParseDiagnosticsText(message)}
}

// BuildHookOutput renders a HookOutput document for event carrying message,
// always in the new shape: stopReason for Stop, additionalContext
// (system-reminder-wrapped) for UserPromptSubmit. It never emits the legacy
// hookSpecificOutput.hookEventName="Stop" shape — only ParseHookOutput
// still reads that one, for backward compatibility with older callers.
func BuildHookOutput(event HookEventName, message string) ([]byte, error) {
	switch event {
	case EventStop:
		return json.Marshal(HookOutput{StopReason: message})
	case EventUserPromptSubmit:
		out := HookOutput{HookSpecificOutput: &HookSpecificOutput{
			HookEventName:     EventUserPromptSubmit,
			AdditionalContext: wrapSystemReminder(message),
		}}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(out); err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	default:
		return nil, &unsupportedEventError{event: event}
	}
}

type unsupportedEventError struct{ event HookEventName }

func (e *unsupportedEventError) Error() string {
	return "hooks: unsupported hook event " + string(e.event)
}

func wrapSystemReminder(body string) string {
	return "<system-reminder>" + body + "</system-reminder>"
}

var (
	errorCountPattern   = regexp.MustCompile(`(?i)(\d+)(?:\s+\S+)?\s+errors?\b`)
	warningCountPattern = regexp.MustCompile(`(?i)(\d+)(?:\s+\S+)?\s+warnings?\b`)
)

// ParseDiagnosticsText extracts error/warning counts from free-form
// validator output such as "DevAC Status: 5 errors, 3 warnings",
// "No issues found", or "2 TypeScript errors in src/error.ts". Matching is
// case-insensitive and tolerates one intervening word between the count
// and the "errors"/"warnings" token (e.g. "TypeScript errors"). Text with
// neither pattern present yields a zero count, which also covers the
// "No issues found" case.
func ParseDiagnosticsText(text string) DiagnosticCounts {
	var counts DiagnosticCounts
	if m := errorCountPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			counts.Errors = n
		}
	}
	if m := warningCountPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			counts.Warnings = n
		}
	}
	return counts
}

// Severity is a validation issue's severity level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueSource names the tool that produced a validation issue.
type IssueSource string

const (
	SourceTSC      IssueSource = "tsc"
	SourceESLint   IssueSource = "eslint"
	SourceBiome    IssueSource = "biome"
	SourceTest     IssueSource = "test"
	SourceCoverage IssueSource = "coverage"
)

// ValidationIssue is one entry in the validation-ingest adapter hook's
// input list (§6).
type ValidationIssue struct {
	File     string      `json:"file"`
	Line     int         `json:"line"`
	Column   int         `json:"column"`
	Message  string      `json:"message"`
	Severity Severity    `json:"severity"`
	Source   IssueSource `json:"source"`
	Code     string      `json:"code,omitempty"`
}

// CountIssues tallies a validation-ingest batch by severity.
func CountIssues(issues []ValidationIssue) DiagnosticCounts {
	var counts DiagnosticCounts
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			counts.Errors++
		case SeverityWarning:
			counts.Warnings++
		}
	}
	return counts
}
