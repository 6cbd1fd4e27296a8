package welcome

import "testing"

func TestMemoryStoreListIsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())

	items := store.List()
	if len(items) != 4 {
		t.Fatalf("expected 4 topics, got %d", len(items))
	}
	items[0].Label = "mutated"

	if got := store.List()[0].Label; got == "mutated" {
		t.Fatal("List should return a copy")
	}
}

func TestSeedTopicsAreUniqueAndPrompted(t *testing.T) {
	seen := make(map[string]bool)
	for _, topic := range Seed() {
		if seen[topic.ID] {
			t.Fatalf("duplicate topic id %q", topic.ID)
		}
		seen[topic.ID] = true
		if topic.Icon == "" || topic.Label == "" || topic.Prompt == "" {
			t.Fatalf("incomplete topic %+v", topic)
		}
	}
}
