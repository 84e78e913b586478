package repo_test

import (
	"testing"

	"github.com/hamed0406/healthwatch/internal/repo"
	"github.com/hamed0406/healthwatch/internal/repo/memory"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.ServiceStore = memory.New()
}
