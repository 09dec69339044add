package scripting_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeon/internal/scripting"
)

func newTestManager(t testing.TB, root string) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	m := scripting.NewManager(root, 0, zap.New(core))
	t.Cleanup(m.Close)
	return m, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0o644))
	return dir
}

func fixedRandom(v int) func(int) int {
	return func(n int) int { return v % n }
}

func TestManager_LoadAndChoose(t *testing.T) {
	dir := writeTempLua(t, "cautious.lua", `
		function choose_action(view)
			if view.hp * 2 < view.max_hp then
				return "guard"
			end
			return view.available[1]
		end
	`)
	m, _ := newTestManager(t, dir)
	require.NoError(t, m.Load("cautious.lua"))
	assert.True(t, m.Loaded("cautious.lua"))

	got, ok := m.Choose("cautious.lua", scripting.View{HP: 10, MaxHP: 100, Available: []string{"physical", "guard"}})
	require.True(t, ok)
	assert.Equal(t, "guard", got)

	got, ok = m.Choose("cautious.lua", scripting.View{HP: 90, MaxHP: 100, Available: []string{"mage", "guard"}})
	require.True(t, ok)
	assert.Equal(t, "mage", got)
}

func TestManager_LoadAll(t *testing.T) {
	dir := writeTempLua(t, "b.lua", `function choose_action() return "b" end`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`function choose_action() return "a" end`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	m, _ := newTestManager(t, dir)

	names, err := m.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.lua", "b.lua"}, names)
}

func TestManager_Load_Errors(t *testing.T) {
	dir := writeTempLua(t, "broken.lua", `function choose_action( return end`)
	m, _ := newTestManager(t, dir)
	assert.Error(t, m.Load("broken.lua"))
	assert.Error(t, m.Load("missing.lua"))
	assert.False(t, m.Loaded("broken.lua"))
	assert.Error(t, m.LoadString("spin", `while true do end`), "top-level code is budgeted")
}

func TestManager_Choose_MissingScriptOrHook(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	_, ok := m.Choose("nope.lua", scripting.View{})
	assert.False(t, ok)

	require.NoError(t, m.LoadString("empty", `-- no functions`))
	_, ok = m.Choose("empty", scripting.View{})
	assert.False(t, ok)

	require.NoError(t, m.LoadString("number", `function choose_action() return 3 end`))
	_, ok = m.Choose("number", scripting.View{})
	assert.False(t, ok)
}

func TestManager_Choose_RuntimeErrorLogsWarn(t *testing.T) {
	m, logs := newTestManager(t, t.TempDir())
	require.NoError(t, m.LoadString("bad", `function choose_action() error("intentional") end`))
	_, ok := m.Choose("bad", scripting.View{})
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestManager_Choose_InfiniteLoopIsStopped(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	require.NoError(t, m.LoadString("spin", `function choose_action() while true do end end`))
	_, ok := m.Choose("spin", scripting.View{})
	assert.False(t, ok)

	require.NoError(t, m.LoadString("fine", `function choose_action() return "guard" end`))
	got, ok := m.Choose("fine", scripting.View{})
	assert.True(t, ok)
	assert.Equal(t, "guard", got)
}

func TestEngineModules(t *testing.T) {
	m, logs := newTestManager(t, t.TempDir())
	require.NoError(t, m.LoadString("mods", `
		function choose_action(view)
			engine.log.info("turn " .. view.turn)
			local total = engine.dice.roll("2d6")
			assert(total >= 2 and total <= 12)
			return view.available[engine.random(#view.available) + 1]
		end
	`))
	got, ok := m.Choose("mods", scripting.View{Turn: 4, Available: []string{"physical", "breath", "guard"}, Random: fixedRandom(1)})
	require.True(t, ok)
	assert.Equal(t, "breath", got)
	assert.Equal(t, 1, logs.FilterMessage("lua: turn 4").Len())
}

func TestEngineRandom_UnavailableAtLoad(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	assert.Error(t, m.LoadString("eager", `local x = engine.random(3)`))
}

func TestManager_ConcurrentChoose(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	require.NoError(t, m.LoadString("p", `function choose_action(view) return view.actor end`))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, ok := m.Choose("p", scripting.View{Actor: "imp"})
			assert.True(t, ok)
			assert.Equal(t, "imp", got)
		}()
	}
	wg.Wait()
}

func TestManager_ForkStartsFromFreshGlobals(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	require.NoError(t, m.LoadString("grudge", `
		calls = 0
		function choose_action(view)
			calls = calls + 1
			if calls > 1 then
				return "guard"
			end
			return "physical"
		end
	`))

	got, _ := m.Choose("grudge", scripting.View{})
	assert.Equal(t, "physical", got)

	f, err := m.Fork()
	require.NoError(t, err)
	t.Cleanup(f.Close)
	assert.True(t, f.Loaded("grudge"))

	got, _ = f.Choose("grudge", scripting.View{})
	assert.Equal(t, "physical", got, "fork does not inherit globals")
	got, _ = m.Choose("grudge", scripting.View{})
	assert.Equal(t, "guard", got, "original keeps its own globals")
	got, _ = f.Choose("grudge", scripting.View{})
	assert.Equal(t, "guard", got)
}
