package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devac/devac/internal/model"
)

func TestDomainEngineFirstMatchWins(t *testing.T) {
	e := NewEngine[DomainEffect]()
	e.AddRule(NewDomainRule(DomainRuleSpec{
		ID: "low", Priority: 1, Enabled: true, CalleePattern: "fetch", Domain: "network", Action: "call",
	}))
	e.AddRule(NewDomainRule(DomainRuleSpec{
		ID: "high", Priority: 10, Enabled: true, CalleePattern: "fetch", Domain: "http", Action: "request",
	}))

	eff := model.Effect{EffectID: "e1", CalleeName: "fetch"}
	result, matched := e.ApplyToEffect(eff, NewContext())
	require.True(t, matched)
	require.Equal(t, "http", result.Domain)
}

func TestDomainEngineDefaultOnNoMatch(t *testing.T) {
	e := NewEngine[DomainEffect]()
	e.SetDefault(DomainEffect{Domain: "unknown"})
	e.AddRule(NewDomainRule(DomainRuleSpec{ID: "r1", Priority: 1, Enabled: true, CalleePattern: "fetch", Domain: "http"}))

	result, matched := e.ApplyToEffect(model.Effect{EffectID: "e1", CalleeName: "write"}, NewContext())
	require.False(t, matched)
	require.Equal(t, "unknown", result.Domain)
}

func TestGroupingEngineMatchesOnInput(t *testing.T) {
	e := NewGroupingEngine()
	e.AddRule(NewGroupingRule(GroupingRuleSpec{
		ID: "controllers", Priority: 5, Enabled: true, FilePathPattern: "controller", Container: "Controllers", Layer: LayerPresentation,
	}))

	ctx := NewContext()
	eff := model.Effect{EffectID: "e1"}
	WithGroupingInput(ctx, "e1", GroupingInput{FilePath: "src/UserController.ts"})

	result, matched := e.ApplyToEffect(eff, ctx)
	require.True(t, matched)
	require.Equal(t, "Controllers", result.Container)
}

func TestGroupingEngineDefaultsToOther(t *testing.T) {
	e := NewGroupingEngine()
	ctx := NewContext()
	result, matched := e.ApplyToEffect(model.Effect{EffectID: "e1"}, ctx)
	require.False(t, matched)
	require.Equal(t, "Other", result.Container)
}

func TestSignificanceEngineExportedRanksHigher(t *testing.T) {
	e := NewSignificanceEngine()
	exported := true
	e.AddRule(NewSignificanceRule(SignificanceRuleSpec{
		ID: "exported-critical", Priority: 10, Enabled: true, IsExported: &exported, MinDependents: 5, Level: LevelCritical,
	}))

	ctx := NewContext()
	WithSignificanceInput(ctx, "e1", SignificanceInput{IsExported: true, DependentsN: 12})

	result, matched := e.ApplyToEffect(model.Effect{EffectID: "e1"}, ctx)
	require.True(t, matched)
	require.Equal(t, LevelCritical, result.Level)
}

func TestSignificanceEngineDefaultIsMinor(t *testing.T) {
	e := NewSignificanceEngine()
	ctx := NewContext()
	result, matched := e.ApplyToEffect(model.Effect{EffectID: "e1"}, ctx)
	require.False(t, matched)
	require.Equal(t, LevelMinor, result.Level)
}

func TestFilterByLevel(t *testing.T) {
	results := []SignificanceResult{
		{EffectID: "a", Level: LevelCritical},
		{EffectID: "b", Level: LevelImportant},
		{EffectID: "c", Level: LevelMinor},
		{EffectID: "d", Level: LevelHidden},
	}
	filtered := FilterByLevel(results, LevelImportant)
	require.Len(t, filtered, 2)
}

func TestProcessAggregatesRuleStats(t *testing.T) {
	e := NewEngine[DomainEffect]()
	e.AddRule(NewDomainRule(DomainRuleSpec{ID: "r1", Priority: 1, Enabled: true, CalleePattern: "fetch", Domain: "http"}))

	effects := []model.Effect{
		{EffectID: "e1", CalleeName: "fetch"},
		{EffectID: "e2", CalleeName: "other"},
	}
	result := e.Process(effects, NewContext())
	require.Equal(t, 1, result.Matched)
	require.Equal(t, 1, result.Unmatched)
	require.Equal(t, 1, result.RuleStats["r1"])
}
