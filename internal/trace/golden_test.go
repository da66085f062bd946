package trace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadItemsFromFiles_Golden(t *testing.T) {
	items, err := LoadItemsFromFiles(
		filepath.Join("testdata", "issues.json"),
		filepath.Join("testdata", "pulls.json"),
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("testdata", "items_golden.json"))
	require.NoError(t, err)
	var want []Item
	require.NoError(t, json.Unmarshal(data, &want))

	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("normalized items mismatch (-want +got):\n%s", diff)
	}
}
