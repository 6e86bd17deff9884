package storage

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// fixtureYAML is a small table-driven fixture in the pack's second config
// format (SPEC_FULL.md's domain-stack section): a sequence of bundles to
// Create and, for a subset, Enqueue, each carrying its expected payload
// and record-ness.
const fixtureYAML = `
entries:
  - payload: "hello world"
    isRecord: false
    enqueue: true
  - payload: "\x01\x02\x03"
    isRecord: true
    enqueue: false
  - payload: "second queued entry"
    isRecord: false
    enqueue: true
`

type fixtureEntry struct {
	Payload  string `yaml:"payload"`
	IsRecord bool   `yaml:"isRecord"`
	Enqueue  bool   `yaml:"enqueue"`
}

type fixture struct {
	Entries []fixtureEntry `yaml:"entries"`
}

func TestRAMStoreFixture(t *testing.T) {
	var fx fixture
	if err := yaml.Unmarshal([]byte(fixtureYAML), &fx); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if len(fx.Entries) != 3 {
		t.Fatalf("fixture entries = %d, want 3", len(fx.Entries))
	}

	store := NewRAMStore()
	var enqueuedOrder []string

	for _, e := range fx.Entries {
		id, err := store.Create(nil, e.IsRecord, []byte(e.Payload), -1)
		if err != nil {
			t.Fatalf("Create(%q): unexpected error: %v", e.Payload, err)
		}

		got, err := store.Retrieve(id)
		if err != nil {
			t.Fatalf("Retrieve after Create: unexpected error: %v", err)
		}
		if string(got) != e.Payload {
			t.Fatalf("Retrieve = %q, want %q", got, e.Payload)
		}

		if e.Enqueue {
			if err := store.Enqueue(id); err != nil {
				t.Fatalf("Enqueue: unexpected error: %v", err)
			}
			enqueuedOrder = append(enqueuedOrder, e.Payload)
		}
	}

	if got, want := store.GetCount(), 3; got != want {
		t.Fatalf("GetCount() = %d, want %d", got, want)
	}

	for _, want := range enqueuedOrder {
		id, err := store.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: unexpected error: %v", err)
		}
		got, err := store.Retrieve(id)
		if err != nil {
			t.Fatalf("Retrieve after Dequeue: unexpected error: %v", err)
		}
		if string(got) != want {
			t.Fatalf("Dequeue order mismatch: got %q, want %q", got, want)
		}
		if err := store.Relinquish(id); err != nil {
			t.Fatalf("Relinquish: unexpected error: %v", err)
		}
	}

	if _, err := store.Dequeue(); err != ErrEmpty {
		t.Fatalf("Dequeue on drained queue: err = %v, want ErrEmpty", err)
	}

	if got, want := store.GetCount(), 1; got != want {
		t.Fatalf("GetCount() after relinquishing both enqueued entries = %d, want %d", got, want)
	}
}
