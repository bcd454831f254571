package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBundleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundles.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBundleMapping(t *testing.T) {
	t.Run("loads a valid mapping", func(t *testing.T) {
		path := writeBundleFile(t, `
[[bundle]]
sku = "CANDLE-4PACK"

  [[bundle.component]]
  sku = "CANDLE"
  title = "Single Candle"
  quantity = 4

[[bundle]]
sku = "STARTER-KIT"

  [[bundle.component]]
  sku = "CANDLE"
  title = "Single Candle"

  [[bundle.component]]
  sku = "HOLDER"
  title = "Candle Holder"
  quantity = 2
`)

		mapping, err := LoadBundleMapping(path)
		require.NoError(t, err)
		require.Len(t, mapping, 2)

		pack := mapping["CANDLE-4PACK"]
		require.Len(t, pack, 1)
		assert.Equal(t, "CANDLE", pack[0].SKU)
		assert.Equal(t, 4, pack[0].QuantityPerBundle)

		kit := mapping["STARTER-KIT"]
		require.Len(t, kit, 2)
		// Missing quantity defaults to 1
		assert.Equal(t, 1, kit[0].QuantityPerBundle)
		assert.Equal(t, 2, kit[1].QuantityPerBundle)
	})

	t.Run("rejects duplicate bundle SKU", func(t *testing.T) {
		path := writeBundleFile(t, `
[[bundle]]
sku = "DUP"

  [[bundle.component]]
  sku = "A"

[[bundle]]
sku = "DUP"

  [[bundle.component]]
  sku = "B"
`)

		_, err := LoadBundleMapping(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than once")
	})

	t.Run("rejects bundle without components", func(t *testing.T) {
		path := writeBundleFile(t, `
[[bundle]]
sku = "EMPTY"
`)

		_, err := LoadBundleMapping(path)
		require.Error(t, err)
	})

	t.Run("rejects component that is itself a bundle", func(t *testing.T) {
		path := writeBundleFile(t, `
[[bundle]]
sku = "OUTER"

  [[bundle.component]]
  sku = "INNER"

[[bundle]]
sku = "INNER"

  [[bundle.component]]
  sku = "LEAF"
`)

		_, err := LoadBundleMapping(path)
		require.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadBundleMapping(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
	})
}
