package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/bundleflow/backend/internal/domain/splitting"
)

// bundleEntry mirrors one [[bundle]] block in the bundles TOML file.
type bundleEntry struct {
	SKU        string           `mapstructure:"sku"`
	Components []componentEntry `mapstructure:"component"`
}

type componentEntry struct {
	SKU      string `mapstructure:"sku"`
	Title    string `mapstructure:"title"`
	Quantity int    `mapstructure:"quantity"`
}

// LoadBundleMapping reads the bundle definition file and builds a validated
// mapping. The file format is TOML:
//
//	[[bundle]]
//	sku = "CANDLE-4PACK"
//
//	  [[bundle.component]]
//	  sku = "CANDLE"
//	  title = "Single Candle"
//	  quantity = 4
//
// A missing quantity defaults to 1. Definitions that repeat a bundle SKU or
// violate the mapping invariants are rejected.
func LoadBundleMapping(path string) (splitting.BundleMapping, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading bundle file %s: %w", path, err)
	}

	var entries []bundleEntry
	if err := v.UnmarshalKey("bundle", &entries); err != nil {
		return nil, fmt.Errorf("error parsing bundle file %s: %w", path, err)
	}

	mapping := make(splitting.BundleMapping, len(entries))
	for _, entry := range entries {
		if _, exists := mapping[entry.SKU]; exists {
			return nil, fmt.Errorf("bundle file %s: bundle SKU %q defined more than once", path, entry.SKU)
		}
		components := make([]splitting.ComponentSpec, 0, len(entry.Components))
		for _, c := range entry.Components {
			qty := c.Quantity
			if qty == 0 {
				qty = 1
			}
			components = append(components, splitting.ComponentSpec{
				SKU:               c.SKU,
				Title:             c.Title,
				QuantityPerBundle: qty,
			})
		}
		mapping[entry.SKU] = components
	}

	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("bundle file %s: %w", path, err)
	}
	return mapping, nil
}
