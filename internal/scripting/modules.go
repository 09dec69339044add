package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// viewSource adapts a View's Random func to dice.Source.
type viewSource struct{ random func(int) int }

func (v viewSource) Intn(n int) int { return v.random(n) }

func (v viewSource) Float64() float64 {
	return float64(v.random(math.MaxInt32)) / math.MaxInt32
}

// registerModules installs the engine table: engine.random, engine.dice.roll and
// engine.log.{debug,info,warn,error}.
//
// Postcondition: engine global is defined in s.L.
func (m *Manager) registerModules(s *script) {
	L := s.L
	engine := L.NewTable()

	random := func(L *lua.LState) (func(int) int, bool) {
		if s.view == nil || s.view.Random == nil {
			L.RaiseError("engine: randomness is only available inside %s", ChooseHook)
			return nil, false
		}
		return s.view.Random, true
	}

	engine.RawSetString("random", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "n must be positive")
			return 0
		}
		r, ok := random(L)
		if !ok {
			return 0
		}
		L.Push(lua.LNumber(r(n)))
		return 1
	}))

	diceTbl := L.NewTable()
	diceTbl.RawSetString("roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		r, ok := random(L)
		if !ok {
			return 0
		}
		L.Push(lua.LNumber(dice.Roll(expr, viewSource{random: r}).Total()))
		return 1
	}))
	engine.RawSetString("dice", diceTbl)

	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	} {
		logTbl.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			fn("lua: "+L.CheckString(1), zap.String("source", "script"))
			return 0
		}))
	}
	engine.RawSetString("log", logTbl)

	L.SetGlobal("engine", engine)
}
