package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenDir holds the expected renderings, relative to the package under test.
const GoldenDir = "testdata"

// UpdateGoldenEnv names the variable that rewrites golden files instead of
// comparing against them, e.g. GOLDEN_UPDATE=1 go test ./internal/view/...
const UpdateGoldenEnv = "GOLDEN_UPDATE"

// RenderGolden compares the printed view tree with GoldenDir/<name>.golden.
// Trailing newlines are not significant.
func RenderGolden(t *testing.T, name string, tree fmt.Stringer) {
	t.Helper()

	got := strings.TrimRight(tree.String(), "\n")
	path := filepath.Join(GoldenDir, name+".golden")

	if update, _ := strconv.ParseBool(os.Getenv(UpdateGoldenEnv)); update {
		require.NoError(t, os.MkdirAll(GoldenDir, 0o755))
		require.NoError(t, os.WriteFile(path, []byte(got+"\n"), 0o644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "no golden rendering for %s; rerun with %s=1 to record it", name, UpdateGoldenEnv)
	assert.Equal(t, strings.TrimRight(string(want), "\n"), got, "rendering of %s changed", name)
}
