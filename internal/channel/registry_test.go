package channel

import (
	"testing"

	"github.com/fraudlens/ringview/internal/model"
)

func envFor(t *testing.T, topic string) model.Envelope {
	t.Helper()
	env, err := model.NewEnvelope(topic, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("NewEnvelope(%s): %v", topic, err)
	}
	return env
}

func TestRegistry_ExactAndWildcard(t *testing.T) {
	r := NewRegistry()

	var alerts, all []string
	r.Subscribe(model.TopicAlert, func(env model.Envelope) {
		alerts = append(alerts, env.Type)
	})
	r.Subscribe(model.TopicWildcard, func(env model.Envelope) {
		all = append(all, env.Type)
	})

	r.Dispatch(envFor(t, model.TopicAlert))
	r.Dispatch(envFor(t, model.TopicJobCreated))

	if len(alerts) != 1 || alerts[0] != model.TopicAlert {
		t.Errorf("alert handler saw %v, want exactly one %q", alerts, model.TopicAlert)
	}
	if len(all) != 2 || all[0] != model.TopicAlert || all[1] != model.TopicJobCreated {
		t.Errorf("wildcard handler saw %v, want both messages in order", all)
	}
}

func TestRegistry_ExactBeforeWildcard(t *testing.T) {
	r := NewRegistry()

	var order []string
	r.Subscribe(model.TopicWildcard, func(model.Envelope) { order = append(order, "wild") })
	r.Subscribe(model.TopicAlert, func(model.Envelope) { order = append(order, "exact-1") })
	r.Subscribe(model.TopicAlert, func(model.Envelope) { order = append(order, "exact-2") })

	r.Dispatch(envFor(t, model.TopicAlert))

	want := []string{"exact-1", "exact-2", "wild"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRegistry_UnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	r := NewRegistry()

	var a, b int
	unsubA := r.Subscribe(model.TopicAlert, func(model.Envelope) { a++ })
	r.Subscribe(model.TopicAlert, func(model.Envelope) { b++ })

	r.Dispatch(envFor(t, model.TopicAlert))
	unsubA()
	unsubA() // second call is a no-op
	r.Dispatch(envFor(t, model.TopicAlert))

	if a != 1 {
		t.Errorf("unsubscribed handler ran %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("remaining handler ran %d times, want 2", b)
	}
}

func TestRegistry_NoSubscribersIsQuiet(t *testing.T) {
	r := NewRegistry()
	r.Dispatch(envFor(t, model.TopicGraphNode)) // must not panic
}
