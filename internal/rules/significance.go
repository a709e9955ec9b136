package rules

import "github.com/devac/devac/internal/model"

// Level is the significance tier a Significance rule assigns (§4.6).
type Level string

const (
	LevelCritical  Level = "critical"
	LevelImportant Level = "important"
	LevelMinor     Level = "minor"
	LevelHidden    Level = "hidden"
)

// SignificanceResult is a Significance rule's emitted payload.
type SignificanceResult struct {
	EffectID string
	Level    Level
}

// SignificanceInput is the extra per-effect context significance rules
// match against beyond the bare Effect: the aggregate counts and
// export/dependent facts §4.6's "auxiliary context" supplies.
type SignificanceInput struct {
	EntityID      string
	IsExported    bool
	DependentsN   int
	FilePath      string
	EntityKind    model.Kind
}

// SignificanceRuleSpec describes one significance rule.
type SignificanceRuleSpec struct {
	ID, Name        string
	Priority        int
	Enabled         bool
	FilePathPattern Pattern
	EntityKind      model.Kind // "" matches any
	MinDependents   int
	IsExported      *bool
	Predicate       func(model.Effect, SignificanceInput) bool
	Level           Level
}

// WithSignificanceInput attaches per-effect significance context to a
// Context so NewSignificanceRule's Match closure can read it back, mirroring
// WithGroupingInput's pattern for the same shared-Context reason.
func WithSignificanceInput(ctx *Context, effectID string, input SignificanceInput) {
	if ctx.significanceInputs == nil {
		ctx.significanceInputs = make(map[string]SignificanceInput)
	}
	ctx.significanceInputs[effectID] = input
}

// NewSignificanceRule compiles a spec into an Engine[SignificanceResult] Rule.
func NewSignificanceRule(spec SignificanceRuleSpec) Rule[SignificanceResult] {
	return Rule[SignificanceResult]{
		ID: spec.ID, Name: spec.Name, Priority: spec.Priority, Enabled: spec.Enabled,
		Match: func(e model.Effect, ctx *Context) bool {
			input := ctx.significanceInputs[e.EffectID]
			if !spec.FilePathPattern.matches(input.FilePath) {
				return false
			}
			if spec.EntityKind != "" && input.EntityKind != spec.EntityKind {
				return false
			}
			if input.DependentsN < spec.MinDependents {
				return false
			}
			if spec.IsExported != nil && input.IsExported != *spec.IsExported {
				return false
			}
			if spec.Predicate != nil && !spec.Predicate(e, input) {
				return false
			}
			return true
		},
		Emit: func(e model.Effect, _ *Context) SignificanceResult {
			return SignificanceResult{EffectID: e.EffectID, Level: spec.Level}
		},
	}
}

// NewSignificanceEngine returns a significance-rule engine defaulted to
// "minor" per §4.6's fallback contract.
func NewSignificanceEngine() *Engine[SignificanceResult] {
	e := NewEngine[SignificanceResult]()
	e.SetDefault(SignificanceResult{Level: LevelMinor})
	return e
}

// FilterByLevel returns the subset of results at or above minLevel, per
// §4.6's filterByLevel operation. Ordering follows the enumerated severity
// critical > important > minor > hidden.
func FilterByLevel(results []SignificanceResult, minLevel Level) []SignificanceResult {
	rank := map[Level]int{LevelCritical: 0, LevelImportant: 1, LevelMinor: 2, LevelHidden: 3}
	threshold, ok := rank[minLevel]
	if !ok {
		return results
	}
	out := make([]SignificanceResult, 0, len(results))
	for _, r := range results {
		if rank[r.Level] <= threshold {
			out = append(out, r)
		}
	}
	return out
}
