package eventbus

import "testing"

func TestPublish_FillsIDAndTimestamp(t *testing.T) {
	b := New()
	defer b.Close()
	ch := b.Subscribe()

	b.Publish(Event{Type: ProviderAdded, Provider: "acme"})

	e := <-ch
	if e.ID == "" {
		t.Error("event id not assigned")
	}
	if e.Timestamp == 0 {
		t.Error("event timestamp not assigned")
	}
	if e.Type != ProviderAdded || e.Provider != "acme" {
		t.Errorf("event = %+v", e)
	}
}

func TestSubscribe_Filter(t *testing.T) {
	b := New()
	defer b.Close()
	ch := b.Subscribe(ProviderRemoved)

	b.Publish(Event{Type: ProviderAdded})
	b.Publish(Event{Type: ProviderRemoved, Provider: "x"})

	e := <-ch
	if e.Type != ProviderRemoved {
		t.Errorf("received %q, want %q", e.Type, ProviderRemoved)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra event: %+v", extra)
	default:
	}
}

func TestPublish_DropsWhenFull(t *testing.T) {
	b := New()
	defer b.Close()
	ch := b.Subscribe()

	// One more than the buffer; the last publish must not block.
	for i := 0; i < 65; i++ {
		b.Publish(Event{Type: StoreReloaded})
	}
	if got := len(ch); got != 64 {
		t.Errorf("buffered events = %d, want 64", got)
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	// A second Unsubscribe must be a no-op, not a double close.
	b.Unsubscribe(ch)
}
