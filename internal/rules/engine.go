// Package rules implements the Rules Engine (§4.6): a single generic
// match→emit engine parameterized for the Domain, Grouping, and
// Significance rule sets, each a first-match-wins pipeline over
// descending-priority rules.
package rules

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/devac/devac/internal/model"
)

// Pattern is a match string: a bare string is a substring match; a
// "regex:"-prefixed string is compiled and used as a regular expression,
// mirroring how flexible real-world pattern matching needs turned out
// to be in practice without requiring every rule author to write regex.
type Pattern string

func (p Pattern) matches(value string) bool {
	if p == "" {
		return true
	}
	if strings.HasPrefix(string(p), "regex:") {
		re, err := regexp.Compile(strings.TrimPrefix(string(p), "regex:"))
		if err != nil {
			return false
		}
		return re.MatchString(value)
	}
	return strings.Contains(value, string(p))
}

// Rule is one match→emit unit generic over its emitted payload type T.
type Rule[T any] struct {
	ID       string
	Name     string
	Priority int
	Enabled  bool
	Match    func(e model.Effect, ctx *Context) bool
	Emit     func(e model.Effect, ctx *Context) T
}

// Context carries the auxiliary aggregate data significance rules need
// (§4.6: "aggregate counts, exported-entity set, dependent counts") and is
// passed to domain/grouping rules too so all three share one Match
// signature; grouping rules read the per-effect inputs attached with
// WithGroupingInput.
type Context struct {
	ExportedEntityIDs map[string]bool
	DependentCounts   map[string]int
	EffectCounts      map[model.EffectType]int

	// groupingInputs carries the per-effect GroupingInput attached by
	// WithGroupingInput; it stays unexported so only the grouping rule
	// family reaches into it (§9: three engines share one Match shape, but
	// only grouping needs this extra context).
	groupingInputs map[string]GroupingInput
	// significanceInputs carries the per-effect SignificanceInput attached
	// by WithSignificanceInput, the significance-rule analogue.
	significanceInputs map[string]SignificanceInput
}

// NewContext returns an empty Context ready for population by the caller.
func NewContext() *Context {
	return &Context{
		ExportedEntityIDs: make(map[string]bool),
		DependentCounts:   make(map[string]int),
		EffectCounts:      make(map[model.EffectType]int),
	}
}

// Result is process(effects[])'s return shape (§4.6).
type Result[T any] struct {
	Items       []T
	Matched     int
	Unmatched   int
	RuleStats   map[string]int
	ProcessTime time.Duration
}

// Engine runs a prioritized rule set, first-match-wins, falling back to a
// configured default when no rule matches.
type Engine[T any] struct {
	rules      []Rule[T]
	defaultVal T
	hasDefault bool
}

// NewEngine returns an Engine with no rules. Use AddRule to populate it.
func NewEngine[T any]() *Engine[T] {
	return &Engine[T]{}
}

// SetDefault configures the value returned for effects no enabled rule
// matches (§4.6: "An effect without any matching rule receives a configured
// default").
func (e *Engine[T]) SetDefault(v T) {
	e.defaultVal = v
	e.hasDefault = true
}

// AddRule inserts a rule and keeps the set sorted by descending priority.
func (e *Engine[T]) AddRule(r Rule[T]) {
	e.rules = append(e.rules, r)
	sort.SliceStable(e.rules, func(i, j int) bool { return e.rules[i].Priority > e.rules[j].Priority })
}

// RemoveRule drops a rule by ID.
func (e *Engine[T]) RemoveRule(id string) {
	out := e.rules[:0]
	for _, r := range e.rules {
		if r.ID != id {
			out = append(out, r)
		}
	}
	e.rules = out
}

// ApplyToEffect runs the first enabled matching rule against one effect,
// falling back to the default if configured. The bool return distinguishes
// "matched a rule" from "fell back to default" for caller bookkeeping.
func (e *Engine[T]) ApplyToEffect(eff model.Effect, ctx *Context) (T, bool) {
	for _, r := range e.rules {
		if !r.Enabled {
			continue
		}
		if r.Match(eff, ctx) {
			return r.Emit(eff, ctx), true
		}
	}
	var zero T
	if e.hasDefault {
		return e.defaultVal, false
	}
	return zero, false
}

// ApplyToEffects runs ApplyToEffect over every effect in order.
func (e *Engine[T]) ApplyToEffects(effects []model.Effect, ctx *Context) []T {
	out := make([]T, 0, len(effects))
	for _, eff := range effects {
		v, _ := e.ApplyToEffect(eff, ctx)
		out = append(out, v)
	}
	return out
}

// Process implements the shared process(effects[]) contract (§4.6).
func (e *Engine[T]) Process(effects []model.Effect, ctx *Context) Result[T] {
	start := time.Now()
	if ctx == nil {
		ctx = NewContext()
	}

	result := Result[T]{RuleStats: make(map[string]int)}
	for _, eff := range effects {
		matchedRule := ""
		for _, r := range e.rules {
			if !r.Enabled {
				continue
			}
			if r.Match(eff, ctx) {
				matchedRule = r.ID
				result.Items = append(result.Items, r.Emit(eff, ctx))
				break
			}
		}
		if matchedRule != "" {
			result.Matched++
			result.RuleStats[matchedRule]++
			continue
		}
		result.Unmatched++
		if e.hasDefault {
			result.Items = append(result.Items, e.defaultVal)
		}
	}

	result.ProcessTime = time.Since(start)
	return result
}
