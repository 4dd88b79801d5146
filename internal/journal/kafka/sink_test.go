package kafka

import "testing"

func TestNewBuildsClientWithoutDialing(t *testing.T) {
	// kgo.NewClient never dials a broker at construction time — it only
	// resolves seeds lazily on the first Produce — so this succeeds even
	// with an address nothing is listening on.
	s, err := New(Config{
		Brokers: []string{"127.0.0.1:1"},
		Topic:   "fsdb-history",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.topic != "fsdb-history" {
		t.Fatalf("topic = %q, want fsdb-history", s.topic)
	}
}
