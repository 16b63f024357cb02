package server

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Gravity = 0.25
	cfg.JumpImpulse = 1.5
	cfg.MoveSpeed = 1
	cfg.Platforms = nil
	cfg.Log = LogConfig{}
	return cfg
}

func newTestWorld(cfg Config) *World {
	return NewWorld(cfg, NewLevel(cfg.LevelWidth, cfg.LevelHeight, cfg.Platforms), nil)
}

func mustJoin(t *testing.T, w *World) PlayerID {
	t.Helper()
	id, err := w.Join()
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	return id
}

func TestJoinSpawnsDefaultPlayer(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)

	id := mustJoin(t, w)
	p, ok := w.Player(id)
	if !ok {
		t.Fatalf("player %s not found after join", id)
	}
	if p.X != cfg.SpawnX || p.Y != cfg.SpawnY || p.VX != 0 || p.VY != 0 {
		t.Fatalf("unexpected spawn state %+v", p)
	}
	if p.W != cfg.PlayerWidth || p.H != cfg.PlayerHeight || p.Color != cfg.PlayerColor {
		t.Fatalf("unexpected spawn attributes %+v", p)
	}
}

func TestJoinLeaveKeepsIDSetConsistent(t *testing.T) {
	w := newTestWorld(testConfig())
	rng := rand.New(rand.NewSource(7))
	live := map[PlayerID]bool{}
	var order []PlayerID

	for i := 0; i < 500; i++ {
		if len(order) == 0 || rng.Intn(3) > 0 {
			id := mustJoin(t, w)
			if live[id] {
				t.Fatalf("id %s issued twice while live", id)
			}
			live[id] = true
			order = append(order, id)
			continue
		}
		idx := rng.Intn(len(order))
		id := order[idx]
		order = append(order[:idx], order[idx+1:]...)
		delete(live, id)
		if !w.Leave(id) {
			t.Fatalf("leave %s reported nothing removed", id)
		}
	}

	ids := w.IDs()
	if len(ids) != len(live) {
		t.Fatalf("world has %d players, want %d", len(ids), len(live))
	}
	for i, id := range ids {
		if id != order[i] {
			t.Fatalf("player %d = %s, want %s (insertion order)", i, id, order[i])
		}
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	w := newTestWorld(testConfig())
	a := mustJoin(t, w)
	b := mustJoin(t, w)

	if !w.Leave(a) {
		t.Fatalf("first leave should remove %s", a)
	}
	if w.Leave(a) {
		t.Fatalf("second leave of %s should be a no-op", a)
	}
	if w.Leave("never-joined") {
		t.Fatalf("leave of unknown id should be a no-op")
	}
	if ids := w.IDs(); len(ids) != 1 || ids[0] != b {
		t.Fatalf("unrelated player must survive, got %v", ids)
	}
}

func TestJoinRejectedAtCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 2
	metrics := &Metrics{}
	w := NewWorld(cfg, NewLevel(cfg.LevelWidth, cfg.LevelHeight, nil), metrics)

	mustJoin(t, w)
	mustJoin(t, w)
	if _, err := w.Join(); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if w.Len() != 2 {
		t.Fatalf("rejected join must not spawn, have %d players", w.Len())
	}
	if metrics.JoinRejected != 1 {
		t.Fatalf("expected one rejected join, got %d", metrics.JoinRejected)
	}
}

func TestFreeFallTrajectory(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)
	id := mustJoin(t, w)

	const n = 8
	for i := 0; i < n; i++ {
		w.Tick()
	}
	p, _ := w.Player(id)
	wantVY := n * cfg.Gravity
	wantY := cfg.SpawnY + cfg.Gravity*n*(n+1)/2
	if p.VY != wantVY || p.Y != wantY || p.X != cfg.SpawnX {
		t.Fatalf("after %d ticks got (x=%v y=%v vy=%v), want (x=%v y=%v vy=%v)",
			n, p.X, p.Y, p.VY, cfg.SpawnX, wantY, wantVY)
	}
}

func TestSolidPlatformCancelsGravityEachTick(t *testing.T) {
	cfg := testConfig()
	cfg.Platforms = []Platform{{Kind: PlatformSolid, X: 0, Y: 300, W: 800, H: 20}}
	w := newTestWorld(cfg)
	id := mustJoin(t, w)
	w.Place(id, 50, 305)

	for i := 0; i < 3; i++ {
		snap := w.Tick()
		p, _ := w.Player(id)
		if p.VY != 0 {
			t.Fatalf("tick %d: vertical velocity should be unchanged, got %v", i, p.VY)
		}
		if len(snap.Players) != 1 || snap.Players[0].Color != cfg.GroundedColor {
			t.Fatalf("tick %d: expected grounded marker in snapshot, got %+v", i, snap.Players)
		}
	}
}

func TestTickSnapshotExposesPublicFields(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)
	a := mustJoin(t, w)
	b := mustJoin(t, w)
	w.Place(a, 10, 20)
	w.Place(b, 30, 40)

	snap := w.Tick()
	if snap.Seq != 1 {
		t.Fatalf("first snapshot seq = %d", snap.Seq)
	}
	want := []PlayerState{
		{Color: "red", Width: 10, Height: 10, X: 10, Y: 20.25},
		{Color: "red", Width: 10, Height: 10, X: 30, Y: 40.25},
	}
	if len(snap.Players) != len(want) {
		t.Fatalf("snapshot has %d players", len(snap.Players))
	}
	for i := range want {
		if snap.Players[i] != want[i] {
			t.Fatalf("player %d = %+v, want %+v", i, snap.Players[i], want[i])
		}
	}
}

func TestTickWithNoPlayers(t *testing.T) {
	w := newTestWorld(testConfig())
	snap := w.Tick()
	if snap.Players == nil || len(snap.Players) != 0 {
		t.Fatalf("expected empty non-nil snapshot, got %#v", snap.Players)
	}
}

func TestJumpThenTick(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)
	id := mustJoin(t, w)
	w.Tick()

	before, _ := w.Player(id)
	if !w.ApplyInput(id, InputJump) {
		t.Fatalf("jump should apply")
	}
	w.Tick()
	after, _ := w.Player(id)

	want := before.VY - cfg.JumpImpulse + cfg.Gravity
	if after.VY != want {
		t.Fatalf("vy after jump = %v, want %v", after.VY, want)
	}
}

func TestIgnoredInputLeavesPlayerUntouched(t *testing.T) {
	w := newTestWorld(testConfig())
	id := mustJoin(t, w)
	w.Tick()
	before, _ := w.Player(id)

	for _, msg := range []string{"", "z", "\x00"} {
		if w.ApplyInput(id, Decode([]byte(msg))) {
			t.Fatalf("input %q should be ignored", msg)
		}
	}
	after, _ := w.Player(id)
	if after != before {
		t.Fatalf("player changed: before %+v after %+v", before, after)
	}
}

func TestApplyInputForDepartedPlayer(t *testing.T) {
	w := newTestWorld(testConfig())
	id := mustJoin(t, w)
	w.Leave(id)
	if w.ApplyInput(id, InputJump) {
		t.Fatalf("input for departed player must be dropped")
	}
}

func TestConcurrentAccess(t *testing.T) {
	w := newTestWorld(testConfig())
	stop := make(chan struct{})
	var tickWG sync.WaitGroup
	tickWG.Add(1)
	go func() {
		defer tickWG.Done()
		for {
			select {
			case <-stop:
				return
			default:
				w.Tick()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := w.Join()
			if err != nil {
				t.Errorf("join: %v", err)
				return
			}
			for _, ev := range []InputEvent{InputJump, InputStartLeft, InputStartRight, InputStopLeft} {
				w.ApplyInput(id, ev)
			}
			w.Leave(id)
			w.Leave(id)
		}()
	}
	wg.Wait()
	close(stop)
	tickWG.Wait()

	if n := w.Len(); n != 0 {
		t.Fatalf("expected every player removed, %d left", n)
	}
}
