package rules

import "github.com/devac/devac/internal/model"

// Layer is the architectural tier a Grouping rule assigns (§4.6).
type Layer string

const (
	LayerPresentation  Layer = "presentation"
	LayerApplication   Layer = "application"
	LayerDomain        Layer = "domain"
	LayerInfrastructure Layer = "infrastructure"
)

// GroupingResult is a Grouping rule's emitted payload.
type GroupingResult struct {
	EffectID  string
	Container string
	Layer     Layer
	Tags      []string
}

// GroupingInput is the extra per-effect context grouping rules match
// against beyond the bare Effect (§4.6: "match by file-path pattern,
// entity-kind, entity-name, domain, action, or predicate"), since an
// effect alone doesn't carry its source entity's kind/name/domain/action —
// those come from the preceding stages (parsed node, domain engine output).
type GroupingInput struct {
	FilePath     string
	EntityKind   model.Kind
	EntityName   string
	Domain       string
	Action       string
}

// GroupingRuleSpec describes one grouping rule.
type GroupingRuleSpec struct {
	ID, Name          string
	Priority          int
	Enabled           bool
	FilePathPattern   Pattern
	EntityKind        model.Kind // "" matches any
	EntityNamePattern Pattern
	DomainPattern     Pattern
	ActionPattern     Pattern
	Predicate         func(model.Effect, GroupingInput) bool
	Container         string
	Layer             Layer
	Tags              []string
}

// groupingContextKey is not referenced; GroupingInput values are stored in
// Context's groupingInputs field by WithGroupingInput.
type groupingContextKey struct{}

// WithGroupingInput attaches per-effect grouping context to a Context so
// NewGroupingRule's Match closure can read it back.
func WithGroupingInput(ctx *Context, effectID string, input GroupingInput) {
	if ctx.groupingInputs == nil {
		ctx.groupingInputs = make(map[string]GroupingInput)
	}
	ctx.groupingInputs[effectID] = input
}

// NewGroupingRule compiles a spec into an Engine[GroupingResult] Rule.
func NewGroupingRule(spec GroupingRuleSpec) Rule[GroupingResult] {
	return Rule[GroupingResult]{
		ID: spec.ID, Name: spec.Name, Priority: spec.Priority, Enabled: spec.Enabled,
		Match: func(e model.Effect, ctx *Context) bool {
			input := ctx.groupingInputs[e.EffectID]
			if !spec.FilePathPattern.matches(input.FilePath) {
				return false
			}
			if spec.EntityKind != "" && input.EntityKind != spec.EntityKind {
				return false
			}
			if !spec.EntityNamePattern.matches(input.EntityName) {
				return false
			}
			if !spec.DomainPattern.matches(input.Domain) {
				return false
			}
			if !spec.ActionPattern.matches(input.Action) {
				return false
			}
			if spec.Predicate != nil && !spec.Predicate(e, input) {
				return false
			}
			return true
		},
		Emit: func(e model.Effect, _ *Context) GroupingResult {
			return GroupingResult{EffectID: e.EffectID, Container: spec.Container, Layer: spec.Layer, Tags: spec.Tags}
		},
	}
}

// NewGroupingEngine returns a grouping-rule engine defaulted to container
// "Other" per §4.6.
func NewGroupingEngine() *Engine[GroupingResult] {
	e := NewEngine[GroupingResult]()
	e.SetDefault(GroupingResult{Container: "Other"})
	return e
}
