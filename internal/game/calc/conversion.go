package calc

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/dungeon/internal/game/stat"
)

type conversionEdge struct {
	source stat.CombatStat
	ratio  float64
}

// ConversionGraph applies stat conversions in dependency order so every target
// sees the final value of its sources.
type ConversionGraph struct {
	incoming map[stat.CombatStat][]conversionEdge
	order    []stat.CombatStat
}

// NewConversionGraph sorts convs topologically with Kahn's algorithm.
// Ties are broken by stat order so the result is deterministic.
//
// Postcondition: Returns a *ConfigError wrapping ErrConversionCycle when convs contain a cycle.
func NewConversionGraph(convs []stat.Conversion) (*ConversionGraph, error) {
	g := &ConversionGraph{incoming: make(map[stat.CombatStat][]conversionEdge)}
	if len(convs) == 0 {
		return g, nil
	}
	outgoing := make(map[stat.CombatStat][]stat.CombatStat)
	indegree := make(map[stat.CombatStat]int)
	for _, c := range convs {
		g.incoming[c.Target] = append(g.incoming[c.Target], conversionEdge{source: c.Source, ratio: c.Ratio})
		outgoing[c.Source] = append(outgoing[c.Source], c.Target)
		indegree[c.Target]++
		if _, ok := indegree[c.Source]; !ok {
			indegree[c.Source] = 0
		}
	}

	var ready []stat.CombatStat
	for s, d := range indegree {
		if d == 0 {
			ready = append(ready, s)
		}
	}
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		s := ready[0]
		ready = ready[1:]
		g.order = append(g.order, s)
		for _, t := range outgoing[s] {
			indegree[t]--
			if indegree[t] == 0 {
				ready = append(ready, t)
			}
		}
	}
	if len(g.order) != len(indegree) {
		var stuck []string
		for s, d := range indegree {
			if d > 0 {
				stuck = append(stuck, s.String())
			}
		}
		sort.Strings(stuck)
		return nil, &ConfigError{Op: "conversions", Err: fmt.Errorf("%w among %v", ErrConversionCycle, stuck)}
	}
	return g, nil
}

// Order returns the evaluation order of every stat touched by a conversion.
func (g *ConversionGraph) Order() []stat.CombatStat {
	return append([]stat.CombatStat(nil), g.order...)
}

// Apply adds source × ratio to every target, in topological order.
func (g *ConversionGraph) Apply(values map[stat.CombatStat]float64) {
	for _, target := range g.order {
		for _, e := range g.incoming[target] {
			values[target] += values[e.source] * e.ratio
		}
	}
}
