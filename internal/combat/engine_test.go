package combat

import (
	"math/rand"
	"testing"

	"github.com/gridshooter/gridshooter/internal/core/event"
	"github.com/gridshooter/gridshooter/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeReferee struct {
	enemyDowns   int
	craftDowns   int
	panicOnEnemy bool
}

func (r *fakeReferee) EnemyDown(tx *world.Tx) {
	r.enemyDowns++
	if r.panicOnEnemy {
		panic("referee exploded")
	}
}

func (r *fakeReferee) CraftDown(tx *world.Tx) {
	r.craftDowns++
	tx.KillCraft(false)
}

func newTestEngine(t *testing.T, ref Referee) (*Engine, *world.State, *event.Bus) {
	t.Helper()
	st := world.NewState(world.DefaultGeometry(), world.DefaultPalette())
	bus := event.NewBus()
	e := NewEngine(st, bus, rand.New(rand.NewSource(42)), ref, zaptest.NewLogger(t))
	return e, st, bus
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b world.Rect
		want bool
	}{
		{"same cell", world.Rect{X: 10, Y: 10, Size: 10}, world.Rect{X: 10, Y: 10, Size: 10}, true},
		{"partial", world.Rect{X: 100, Y: 100, Size: 10}, world.Rect{X: 105, Y: 105, Size: 10}, true},
		{"touching edge", world.Rect{X: 0, Y: 0, Size: 10}, world.Rect{X: 10, Y: 0, Size: 10}, false},
		{"touching corner", world.Rect{X: 0, Y: 0, Size: 10}, world.Rect{X: 10, Y: 10, Size: 10}, false},
		{"apart", world.Rect{X: 0, Y: 0, Size: 10}, world.Rect{X: 50, Y: 50, Size: 10}, false},
		{"shot inside", world.Rect{X: 22, Y: 30, Size: 5}, world.Rect{X: 20, Y: 30, Size: 10}, true},
		{"shot above", world.Rect{X: 22, Y: 25, Size: 5}, world.Rect{X: 20, Y: 30, Size: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFriendEnemyCollisionFromEitherSide(t *testing.T) {
	for _, subjectIsFriend := range []bool{true, false} {
		e, st, _ := newTestEngine(t, nil)
		var friend, enemy *world.Character
		st.Locked(func(tx *world.Tx) {
			friend = tx.AddFriend(world.Point{X: 100, Y: 100})
			enemy = tx.AddEnemy(world.Point{X: 105, Y: 105})
		})

		if subjectIsFriend {
			e.CheckCharacter(friend)
		} else {
			e.CheckCharacter(enemy)
		}
		if friend.Alive() || enemy.Alive() {
			t.Fatalf("subjectIsFriend=%v: friend alive=%v enemy alive=%v, want both dead",
				subjectIsFriend, friend.Alive(), enemy.Alive())
		}
	}
}

func TestEnemyTouchingCraftLoses(t *testing.T) {
	ref := &fakeReferee{}
	e, st, _ := newTestEngine(t, ref)
	var enemy *world.Character
	st.Locked(func(tx *world.Tx) {
		tx.PlaceCraft()
		enemy = tx.AddEnemy(world.Point{X: 250, Y: 250})
	})

	e.CheckCharacter(enemy)
	if st.Craft().Alive() {
		t.Fatal("craft should be dead")
	}
	if st.Craft().Won() {
		t.Fatal("craft should not have won")
	}
	if !enemy.Alive() {
		t.Fatal("enemy should survive")
	}
	if ref.craftDowns != 1 {
		t.Fatalf("CraftDown called %d times", ref.craftDowns)
	}

	// the craft is already down; a second check from its side changes nothing
	e.CheckCharacter(st.Craft())
	if ref.craftDowns != 1 {
		t.Fatalf("CraftDown called %d times after second check", ref.craftDowns)
	}
}

func TestSameKindCollisionBumpsTheOther(t *testing.T) {
	for _, kind := range []world.Kind{world.KindEnemy, world.KindFriend} {
		e, st, _ := newTestEngine(t, nil)
		var subject, other *world.Character
		st.Locked(func(tx *world.Tx) {
			add := tx.AddEnemy
			if kind == world.KindFriend {
				add = tx.AddFriend
			}
			subject = add(world.Point{X: 100, Y: 100})
			other = add(world.Point{X: 100, Y: 100})
		})

		e.CheckCharacter(subject)
		if !subject.Alive() || !other.Alive() {
			t.Fatalf("%s: nobody should die in a bump", kind)
		}
		if got := subject.Position(); got != (world.Point{X: 100, Y: 100}) {
			t.Fatalf("%s: subject moved to %+v", kind, got)
		}
		if got := other.Position(); got == (world.Point{X: 100, Y: 100}) {
			t.Fatalf("%s: other did not move", kind)
		}
	}
}

func TestCraftTouchingFriendBumpsFriend(t *testing.T) {
	e, st, _ := newTestEngine(t, nil)
	var friend *world.Character
	st.Locked(func(tx *world.Tx) {
		tx.PlaceCraft()
		friend = tx.AddFriend(world.Point{X: 250, Y: 250})
	})

	e.CheckCharacter(st.Craft())
	if got := st.Craft().Position(); got != (world.Point{X: 250, Y: 250}) {
		t.Fatalf("craft moved to %+v", got)
	}
	if friend.Position() == (world.Point{X: 250, Y: 250}) {
		t.Fatal("friend should have been bumped")
	}
	if !friend.Alive() || !st.Craft().Alive() {
		t.Fatal("nobody should die")
	}
}

func TestProjectileFactionRules(t *testing.T) {
	tests := []struct {
		faction       world.Faction
		struck        world.Kind
		wantCharDead  bool
		wantShotSpent bool
	}{
		{world.FactionCraft, world.KindEnemy, true, true},
		{world.FactionCraft, world.KindFriend, false, true},
		{world.FactionCraft, world.KindCraft, false, true},
		{world.FactionEnemy, world.KindFriend, true, true},
		{world.FactionEnemy, world.KindCraft, true, true},
		{world.FactionEnemy, world.KindEnemy, false, true},
		{world.FactionFriend, world.KindEnemy, true, true},
		{world.FactionFriend, world.KindFriend, false, true},
		{world.FactionFriend, world.KindCraft, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.faction.String()+"/"+tt.struck.String(), func(t *testing.T) {
			e, st, _ := newTestEngine(t, nil)
			target := world.Point{X: 100, Y: 100}
			var c *world.Character
			var p *world.Projectile
			st.Locked(func(tx *world.Tx) {
				switch tt.struck {
				case world.KindEnemy:
					c = tx.AddEnemy(target)
				case world.KindFriend:
					c = tx.AddFriend(target)
				case world.KindCraft:
					tx.Craft().SetPosition(target)
					c = tx.Craft()
				}
				p = tx.AddProjectile(tt.faction, world.Point{X: 102, Y: 102}, 1)
			})

			e.CheckProjectile(p)
			if got := !c.Alive(); got != tt.wantCharDead {
				t.Fatalf("character dead = %v, want %v", got, tt.wantCharDead)
			}
			if got := !p.Alive(); got != tt.wantShotSpent {
				t.Fatalf("projectile spent = %v, want %v", got, tt.wantShotSpent)
			}
		})
	}
}

func TestProjectileMissLeavesEverythingAlive(t *testing.T) {
	e, st, _ := newTestEngine(t, nil)
	var enemy *world.Character
	var p *world.Projectile
	st.Locked(func(tx *world.Tx) {
		enemy = tx.AddEnemy(world.Point{X: 100, Y: 100})
		p = tx.AddProjectile(world.FactionCraft, world.Point{X: 200, Y: 100}, -1)
	})
	e.CheckProjectile(p)
	if !enemy.Alive() || !p.Alive() {
		t.Fatal("a miss must not kill anything")
	}
}

func TestDeathsAreEmitted(t *testing.T) {
	ref := &fakeReferee{}
	e, st, bus := newTestEngine(t, ref)
	var killed []event.CharacterKilled
	var spent []event.ProjectileSpent
	event.Subscribe(bus, func(ev event.CharacterKilled) { killed = append(killed, ev) })
	event.Subscribe(bus, func(ev event.ProjectileSpent) { spent = append(spent, ev) })

	var p *world.Projectile
	st.Locked(func(tx *world.Tx) {
		tx.AddEnemy(world.Point{X: 40, Y: 40})
		p = tx.AddProjectile(world.FactionFriend, world.Point{X: 42, Y: 42}, 1)
	})
	e.CheckProjectile(p)

	bus.SwapBuffers()
	bus.DispatchAll()
	if len(killed) != 1 || killed[0].Kind != "enemy" || killed[0].Cause != "friend shot" {
		t.Fatalf("killed events: %+v", killed)
	}
	if len(spent) != 1 || !spent[0].Hit {
		t.Fatalf("spent events: %+v", spent)
	}
	if ref.enemyDowns != 1 {
		t.Fatalf("EnemyDown called %d times", ref.enemyDowns)
	}
}

func TestSpendWithoutHit(t *testing.T) {
	e, st, _ := newTestEngine(t, nil)
	p := st.AddProjectile(world.FactionEnemy, world.Point{X: 600, Y: 10}, 1)
	e.Spend(p)
	e.Spend(p)
	if p.Alive() {
		t.Fatal("projectile should be spent")
	}
	if c := st.Counts(); c.Pending != 1 {
		t.Fatalf("projectile staged %d times", c.Pending)
	}
}

func TestScanPanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	st := world.NewState(world.DefaultGeometry(), world.DefaultPalette())
	ref := &fakeReferee{panicOnEnemy: true}
	e := NewEngine(st, event.NewBus(), rand.New(rand.NewSource(1)), ref, zap.New(core))

	var friend, enemy *world.Character
	st.Locked(func(tx *world.Tx) {
		friend = tx.AddFriend(world.Point{X: 0, Y: 0})
		enemy = tx.AddEnemy(world.Point{X: 0, Y: 0})
	})

	e.CheckCharacter(friend)
	if enemy.Alive() {
		t.Fatal("enemy should be dead before the panic")
	}
	if logs.FilterMessage("collision scan aborted").Len() != 1 {
		t.Fatalf("expected one recovered scan, got %d log entries", logs.Len())
	}

	// the lock must have been released
	done := make(chan struct{})
	go func() {
		st.Drain()
		close(done)
	}()
	<-done
}

// alwaysSource makes every random move the same direction.
type alwaysSource int64

func (s alwaysSource) Int63() int64 { return int64(s) }
func (alwaysSource) Seed(int64)     {}

// newEastEngine bumps every character one cell east.
func newEastEngine(t *testing.T, ref Referee) (*Engine, *world.State) {
	t.Helper()
	idx := -1
	for i, d := range world.Directions {
		if d == world.East {
			idx = i
		}
	}
	st := world.NewState(world.DefaultGeometry(), world.DefaultPalette())
	rng := rand.New(alwaysSource(int64(idx) << 32))
	e := NewEngine(st, event.NewBus(), rng, ref, zaptest.NewLogger(t))
	if d := e.RandomDirection(); d != world.East {
		t.Fatalf("fixed source drew %s", d)
	}
	return e, st
}

func TestFriendTouchingCraftMovesItself(t *testing.T) {
	e, st := newEastEngine(t, nil)
	var friend *world.Character
	st.Locked(func(tx *world.Tx) {
		tx.PlaceCraft()
		friend = tx.AddFriend(world.Point{X: 250, Y: 250})
	})

	e.CheckCharacter(friend)
	if got := friend.Position(); got != (world.Point{X: 260, Y: 250}) {
		t.Fatalf("friend at %+v, want one cell east", got)
	}
	if got := st.Craft().Position(); got != (world.Point{X: 250, Y: 250}) {
		t.Fatalf("craft moved to %+v", got)
	}
	if !friend.Alive() || !st.Craft().Alive() {
		t.Fatal("nobody should die")
	}
}

func TestBumpedEnemyLandingOnCraftLoses(t *testing.T) {
	ref := &fakeReferee{}
	e, st := newEastEngine(t, ref)
	var subject, bumped *world.Character
	st.Locked(func(tx *world.Tx) {
		tx.PlaceCraft()
		subject = tx.AddEnemy(world.Point{X: 240, Y: 250})
		bumped = tx.AddEnemy(world.Point{X: 240, Y: 250})
	})

	e.CheckCharacter(subject)
	if got := bumped.Position(); got != (world.Point{X: 250, Y: 250}) {
		t.Fatalf("bumped enemy at %+v", got)
	}
	if st.Craft().Alive() || ref.craftDowns != 1 {
		t.Fatalf("craft alive=%v, CraftDown calls=%d; the re-check should end the match",
			st.Craft().Alive(), ref.craftDowns)
	}
	if got := subject.Position(); got != (world.Point{X: 240, Y: 250}) {
		t.Fatalf("subject moved to %+v", got)
	}
}

func TestBumpChainStopsAtDepthBound(t *testing.T) {
	e, st := newEastEngine(t, nil)
	const chain = maxBumpDepth + 3
	var subject *world.Character
	line := make([]*world.Character, chain)
	st.Locked(func(tx *world.Tx) {
		tx.PlaceCraft()
		subject = tx.AddEnemy(world.Point{X: 0, Y: 100})
		for i := range line {
			line[i] = tx.AddEnemy(world.Point{X: 10 * i, Y: 100})
		}
	})

	e.CheckCharacter(subject)

	// line[k] is re-checked at depth k+1; the one bumped at the bound is
	// left where it landed
	for i, c := range line {
		want := world.Point{X: 10 * i, Y: 100}
		if i <= maxBumpDepth {
			want.X += 10
		}
		if got := c.Position(); got != want {
			t.Fatalf("line[%d] at %+v, want %+v", i, got, want)
		}
		if !c.Alive() {
			t.Fatalf("line[%d] died", i)
		}
	}
	last, next := line[maxBumpDepth], line[maxBumpDepth+1]
	if !Overlaps(last.Rect(), next.Rect()) {
		t.Fatal("the chain should stop with an unresolved overlap")
	}
}
