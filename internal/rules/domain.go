package rules

import "github.com/devac/devac/internal/model"

// DomainEffect is a Domain rule's emitted payload (§4.6): a (domain,
// action) classification plus arbitrary metadata.
type DomainEffect struct {
	EffectID string
	Domain   string
	Action   string
	Metadata map[string]any
}

// DomainRuleSpec describes one domain rule's match predicate and emitted
// classification, for NewDomainRule to compile into an Engine[DomainEffect]
// Rule.
type DomainRuleSpec struct {
	ID, Name        string
	Priority        int
	Enabled         bool
	EffectType      model.EffectType // "" matches any
	CalleePattern   Pattern
	TargetPattern   Pattern
	SourcePattern   Pattern
	IsExternal      *bool
	IsAsync         *bool
	Predicate       func(model.Effect) bool
	Domain, Action  string
	Metadata        map[string]any
}

// NewDomainRule compiles a spec into an Engine[DomainEffect] Rule.
func NewDomainRule(spec DomainRuleSpec) Rule[DomainEffect] {
	return Rule[DomainEffect]{
		ID: spec.ID, Name: spec.Name, Priority: spec.Priority, Enabled: spec.Enabled,
		Match: func(e model.Effect, _ *Context) bool {
			if spec.EffectType != "" && e.EffectType != spec.EffectType {
				return false
			}
			if !spec.CalleePattern.matches(e.CalleeName) {
				return false
			}
			if !spec.TargetPattern.matches(e.TargetResource + e.Target) {
				return false
			}
			if !spec.SourcePattern.matches(e.SourceEntityID) {
				return false
			}
			if spec.IsExternal != nil && e.IsExternal != *spec.IsExternal {
				return false
			}
			if spec.IsAsync != nil && e.IsAsync != *spec.IsAsync {
				return false
			}
			if spec.Predicate != nil && !spec.Predicate(e) {
				return false
			}
			return true
		},
		Emit: func(e model.Effect, _ *Context) DomainEffect {
			return DomainEffect{EffectID: e.EffectID, Domain: spec.Domain, Action: spec.Action, Metadata: spec.Metadata}
		},
	}
}

// NewDomainEngine returns a domain-rule engine defaulted to ("Other",
// "unknown") per §4.6's fallback contract.
func NewDomainEngine() *Engine[DomainEffect] {
	e := NewEngine[DomainEffect]()
	e.SetDefault(DomainEffect{Domain: "Other", Action: "unknown"})
	return e
}
