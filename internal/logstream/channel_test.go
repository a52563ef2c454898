package logstream

import (
	"fmt"
	"sync"
	"testing"
)

// =============================================================================
// Channel tests
// =============================================================================

func TestChannelDeliversInOrderExactlyOnce(t *testing.T) {
	ch := NewChannel("test")

	var got []string
	ch.Subscribe(func(l Line) {
		got = append(got, l.Text)
	})

	const n = 500
	for i := 0; i < n; i++ {
		ch.Publish(NewLine("primary/stdout", fmt.Sprintf("line-%d", i)))
	}

	if len(got) != n {
		t.Fatalf("expected %d lines, got %d", n, len(got))
	}
	for i, text := range got {
		if want := fmt.Sprintf("line-%d", i); text != want {
			t.Fatalf("line %d: expected %q, got %q", i, want, text)
		}
	}
}

func TestChannelFanOut(t *testing.T) {
	ch := NewChannel("test")

	counts := make([]int, 3)
	for i := 0; i < 3; i++ {
		i := i
		ch.Subscribe(func(Line) { counts[i]++ })
	}

	for i := 0; i < 10; i++ {
		ch.Publish(NewLine("primary/stdout", "x"))
	}

	for i, c := range counts {
		if c != 10 {
			t.Errorf("subscriber %d: expected 10 deliveries, got %d", i, c)
		}
	}
}

func TestChannelUnsubscribeStopsDelivery(t *testing.T) {
	ch := NewChannel("test")

	var count int
	sub := ch.Subscribe(func(Line) { count++ })

	ch.Publish(NewLine("primary/stdout", "before"))
	ch.Unsubscribe(sub)
	ch.Publish(NewLine("primary/stdout", "after"))

	if count != 1 {
		t.Errorf("expected 1 delivery, got %d", count)
	}
	if ch.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", ch.Subscribers())
	}
}

func TestChannelUnsubscribeUnknownIDIsNoop(t *testing.T) {
	ch := NewChannel("test")
	ch.Unsubscribe(Subscription(42))
}

func TestChannelSubscriberPanicIsSwallowed(t *testing.T) {
	ch := NewChannel("test")

	var delivered int
	ch.Subscribe(func(Line) {
		// Simulates an observer destroyed while a publish is in flight.
		panic("widget gone")
	})
	ch.Subscribe(func(Line) { delivered++ })

	ch.Publish(NewLine("primary/stdout", "a"))
	ch.Publish(NewLine("primary/stdout", "b"))

	if delivered != 2 {
		t.Errorf("healthy subscriber should receive all lines, got %d", delivered)
	}
	if _, recovered := ch.Stats(); recovered != 2 {
		t.Errorf("expected 2 recovered panics, got %d", recovered)
	}
}

func TestChannelConcurrentPublish(t *testing.T) {
	ch := NewChannel("test")

	var mu sync.Mutex
	perSource := map[string][]string{}
	ch.Subscribe(func(l Line) {
		mu.Lock()
		perSource[l.Source] = append(perSource[l.Source], l.Text)
		mu.Unlock()
	})

	// Two independent sources publishing concurrently; each source's
	// own order must survive.
	const n = 200
	var wg sync.WaitGroup
	for _, source := range []string{"primary/stdout", "primary/stderr"} {
		source := source
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				ch.Publish(NewLine(source, fmt.Sprintf("%d", i)))
			}
		}()
	}
	wg.Wait()

	for source, lines := range perSource {
		if len(lines) != n {
			t.Fatalf("%s: expected %d lines, got %d", source, n, len(lines))
		}
		for i, text := range lines {
			if want := fmt.Sprintf("%d", i); text != want {
				t.Fatalf("%s line %d: expected %q, got %q", source, i, want, text)
			}
		}
	}
}

func TestChannelConcurrentSubscribeUnsubscribe(t *testing.T) {
	ch := NewChannel("test")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			sub := ch.Subscribe(func(Line) {})
			ch.Unsubscribe(sub)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			ch.Publish(NewLine("primary/stdout", "x"))
		}
	}()
	wg.Wait()
}
