package helpers

import (
	"testing"

	"github.com/jonathansantilli/freemad/internal/store"
)

func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
