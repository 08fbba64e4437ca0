package observe

import "testing"

func TestValueNotifiesSubscribers(t *testing.T) {
	v := NewValue(1)

	var got []int
	cancel := v.Subscribe(func(n int) { got = append(got, n) })

	v.Set(2)
	v.Set(3)
	cancel()
	v.Set(4)

	if v.Get() != 4 {
		t.Fatalf("Get() = %d, want 4", v.Get())
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("callback saw %v, want [2 3]", got)
	}
}

func TestValueSubscriberMayReenter(t *testing.T) {
	v := NewValue("")

	var final string
	v.Subscribe(func(s string) {
		// Reading back from inside the callback must not deadlock.
		final = v.Get()
	})
	v.Set("done")

	if final != "done" {
		t.Fatalf("callback read %q, want \"done\"", final)
	}
}
