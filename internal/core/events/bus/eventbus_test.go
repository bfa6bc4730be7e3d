package bus

import (
	"errors"
	"testing"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []Event
	_, err := b.Subscribe("entity.registered", func(e Event) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("entity.registered", "tree", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err = b.Publish(NewEvent("entity.unregistered", "tree", 456)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Data != 123 || got[0].Source != "tree" || got[0].Time.IsZero() {
		t.Errorf("unexpected event %+v", got[0])
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	b := New()
	var order []string
	_, _ = b.SubscribeAll(func(e Event) error { order = append(order, "all:"+e.Type); return nil })
	_, _ = b.Subscribe("a", func(e Event) error { order = append(order, "a"); return nil })

	_ = b.Publish(NewEvent("a", "src", nil))
	_ = b.Publish(NewEvent("b", "src", nil))

	want := []string{"a", "all:a", "all:b"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return errB })
	_, _ = b.Subscribe("x", func(Event) error { return nil })

	err := b.Publish(NewEvent("x", "src", nil))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined error, got %v", err)
	}
	m := b.Metrics()
	if m.Published != 1 || m.DeliveredHandlers != 3 || m.Errors != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	count := 0
	sub, _ := b.Subscribe("ev", func(Event) error { count++; return nil })
	_ = b.Publish(NewEvent("ev", "src", nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	_ = b.Publish(NewEvent("ev", "src", nil))
	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
	if err := sub.Cancel(); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if b.Metrics().Subscribers != 0 {
		t.Fatalf("expected no subscribers, got %d", b.Metrics().Subscribers)
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	b := New()
	if _, err := b.Subscribe("ev", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}
