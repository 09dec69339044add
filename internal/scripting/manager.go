package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ChooseHook is the global function a policy script defines.
const ChooseHook = "choose_action"

// View is the snapshot passed to a policy script.
type View struct {
	Turn      int
	Actor     string
	HP        int
	MaxHP     int
	Available []string
	// AllyHPRatios and EnemyHPRatios list living actors in formation order.
	AllyHPRatios  []float64
	EnemyHPRatios []float64
	// Random returns a value in [0, n). It backs engine.random and engine.dice.roll.
	Random func(n int) int
}

// script is one loaded policy with its own VM. A VM is single-threaded, so
// calls are serialized by mu.
type script struct {
	mu   sync.Mutex
	L    *lua.LState
	src  string
	view *View
}

// Manager owns one sandboxed LState per policy script.
//
// Manager is safe for concurrent use. Calls to the same script are serialized;
// different scripts run concurrently. Script globals persist across calls, so
// callers that need independent runs give each run its own Manager via Fork.
type Manager struct {
	mu        sync.RWMutex
	root      string
	instLimit int
	scripts   map[string]*script
	logger    *zap.Logger
}

// NewManager creates a Manager that resolves script names under root.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(root string, instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{root: root, instLimit: instLimit, scripts: make(map[string]*script), logger: logger}
}

// Load compiles the script name (a path relative to the root) into a fresh VM,
// replacing any previous version.
//
// Postcondition: Returns an error on read, compile or top-level runtime failure.
func (m *Manager) Load(name string) error {
	src, err := os.ReadFile(filepath.Join(m.root, filepath.Clean(name)))
	if err != nil {
		return fmt.Errorf("scripting: reading %q: %w", name, err)
	}
	return m.LoadString(name, string(src))
}

// LoadString compiles src under name.
func (m *Manager) LoadString(name, src string) error {
	s := &script{L: NewSandboxedState(), src: src}
	m.registerModules(s)
	if err := Exec(s.L, src, m.instLimit); err != nil {
		s.L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	m.mu.Lock()
	if old, ok := m.scripts[name]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.scripts[name] = s
	m.mu.Unlock()
	return nil
}

// LoadAll loads every *.lua file directly under the root in lexicographic order.
//
// Postcondition: Returns the loaded names.
func (m *Manager) LoadAll() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script root %q: %w", m.root, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		if err := m.Load(n); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Fork returns a new Manager holding a fresh VM for every script loaded in m.
// Globals a script set in m are not carried over.
//
// Postcondition: The caller owns the result and must Close it.
func (m *Manager) Fork() (*Manager, error) {
	m.mu.RLock()
	sources := make(map[string]string, len(m.scripts))
	for name, s := range m.scripts {
		sources[name] = s.src
	}
	m.mu.RUnlock()

	f := NewManager(m.root, m.instLimit, m.logger)
	for name, src := range sources {
		if err := f.LoadString(name, src); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Loaded reports whether name has been loaded.
func (m *Manager) Loaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scripts[name]
	return ok
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, s := range m.scripts {
		s.mu.Lock()
		s.L.Close()
		s.mu.Unlock()
		delete(m.scripts, name)
	}
}

// Choose calls the choose_action hook of script name with view.
// Unknown scripts, missing hooks, runtime errors and non-string results yield
// ok=false; runtime errors are logged at warn level and never propagated.
func (m *Manager) Choose(name string, view View) (string, bool) {
	m.mu.RLock()
	s, found := m.scripts[name]
	m.mu.RUnlock()
	if !found {
		m.logger.Debug("scripting: script not loaded", zap.String("script", name))
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fn := s.L.GetGlobal(ChooseHook)
	if fn.Type() != lua.LTFunction {
		return "", false
	}
	s.view = &view
	defer func() { s.view = nil }()

	release := withBudget(s.L, m.instLimit)
	defer release()
	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, viewTable(s.L, view)); err != nil {
		m.logger.Warn("scripting: Lua runtime error", zap.String("script", name), zap.Error(err))
		return "", false
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	str, ok := ret.(lua.LString)
	if !ok {
		return "", false
	}
	return string(str), true
}

func viewTable(L *lua.LState, v View) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("turn", lua.LNumber(v.Turn))
	t.RawSetString("actor", lua.LString(v.Actor))
	t.RawSetString("hp", lua.LNumber(v.HP))
	t.RawSetString("max_hp", lua.LNumber(v.MaxHP))
	avail := L.NewTable()
	for _, a := range v.Available {
		avail.Append(lua.LString(a))
	}
	t.RawSetString("available", avail)
	t.RawSetString("allies", numbers(L, v.AllyHPRatios))
	t.RawSetString("enemies", numbers(L, v.EnemyHPRatios))
	return t
}

func numbers(L *lua.LState, vs []float64) *lua.LTable {
	t := L.NewTable()
	for _, v := range vs {
		t.Append(lua.LNumber(v))
	}
	return t
}
