package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "linearalgebra", NormalizeName("  Linear \t Algebra\n"))
}

func TestCleanCells(t *testing.T) {
	in := []string{"\n\t", "MATH120017", "  ", "2023-2024", "1", "\n"}
	require.Equal(t, []string{"MATH120017", "2023-2024", "1"}, CleanCells(in))
}
