package scripting

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/battle"
)

// Policy lets loaded Lua scripts choose the action category of scripted enemies.
type Policy struct {
	m *Manager
}

// NewPolicy wraps m as a battle.ActionPolicy.
//
// Precondition: m must not be nil.
func NewPolicy(m *Manager) *Policy { return &Policy{m: m} }

// Choose implements battle.ActionPolicy. An unknown category name yields ok=false.
func (p *Policy) Choose(script string, view battle.PolicyView) (battle.Category, bool) {
	avail := make([]string, len(view.Available))
	for i, c := range view.Available {
		avail[i] = c.String()
	}
	name, ok := p.m.Choose(script, View{
		Turn:          view.Turn,
		Actor:         view.Actor,
		HP:            view.HP,
		MaxHP:         view.MaxHP,
		Available:     avail,
		AllyHPRatios:  view.AllyHPRatios,
		EnemyHPRatios: view.EnemyHPRatios,
		Random:        view.Random,
	})
	if !ok {
		return 0, false
	}
	c, err := battle.ParseCategory(name)
	if err != nil {
		p.m.logger.Warn("scripting: unknown category", zap.String("script", script), zap.String("category", name))
		return 0, false
	}
	return c, true
}
