package featureflags

import (
	"testing"

	"github.com/google/uuid"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")
	u := uuid.New()

	if !m.Enabled("a", u) || !m.Enabled("c", u) || !m.Enabled("e", u) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", u) || m.Enabled("d", u) || m.Enabled("f", u) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("missing", u) {
		t.Fatal("unknown flags must be disabled")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=x%")
	u := uuid.MustParse("5d1f8a4e-4c2b-4f7e-9a3d-0b6c7e8f9a10")

	if !m.Enabled("always", u) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", u) || m.Enabled("junk", u) {
		t.Fatal("0% and malformed rollouts should be disabled")
	}

	first := m.Enabled("canary", u)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", u); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", uuid.Nil) {
		t.Fatal("percentage rollout requires a user")
	}
}

func TestEnabled_RolloutSpreadsUsers(t *testing.T) {
	m := NewManager("half=50%")
	on := 0
	for i := 0; i < 400; i++ {
		if m.Enabled("half", uuid.New()) {
			on++
		}
	}
	if on < 100 || on > 300 {
		t.Fatalf("expected roughly half the users enabled, got %d/400", on)
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(uuid.New())
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled(PauseGifStories, uuid.New()) {
		t.Fatal("nil manager must report disabled")
	}
	if len(m.Raw()) != 0 || len(m.Snapshot(uuid.Nil)) != 0 {
		t.Fatal("nil manager must report no flags")
	}
}
