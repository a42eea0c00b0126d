package event

import (
	"sync"
	"testing"
)

func TestBusDeliversOnNextDispatch(t *testing.T) {
	b := NewBus()
	var got []GameEnded
	Subscribe(b, func(ev GameEnded) { got = append(got, ev) })

	Emit(b, GameEnded{Won: true})
	if n := b.DispatchAll(); n != 0 {
		t.Fatalf("dispatched %d before swap", n)
	}

	b.SwapBuffers()
	if n := b.DispatchAll(); n != 1 {
		t.Fatalf("dispatched %d, want 1", n)
	}
	if len(got) != 1 || !got[0].Won {
		t.Fatalf("got %+v", got)
	}

	// the swapped-out buffer was cleared
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 0 {
		t.Fatalf("stale events redelivered: %d", n)
	}
}

func TestBusKeepsEmitOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(ev CharacterKilled) { got = append(got, "killed "+ev.Kind) })
	Subscribe(b, func(ProjectileSpent) { got = append(got, "spent") })
	Subscribe(b, func(GameEnded) { got = append(got, "ended") })

	for i := 0; i < 20; i++ {
		got = got[:0]
		Emit(b, ProjectileSpent{Hit: true})
		Emit(b, CharacterKilled{Kind: "friend"})
		Emit(b, CharacterKilled{Kind: "enemy"})
		Emit(b, GameEnded{Won: true})
		b.SwapBuffers()
		b.DispatchAll()

		want := []string{"spent", "killed friend", "killed enemy", "ended"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	}
}

func TestBusConcurrentEmit(t *testing.T) {
	b := NewBus()
	count := 0
	Subscribe(b, func(CharacterKilled) { count++ })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Emit(b, CharacterKilled{Kind: "enemy"})
			}
		}()
	}
	wg.Wait()

	b.SwapBuffers()
	b.DispatchAll()
	if count != 400 {
		t.Fatalf("count = %d, want 400", count)
	}
}

func TestEmitOnNilBusIsNoop(t *testing.T) {
	var b *Bus
	Emit(b, GameEnded{})
}
