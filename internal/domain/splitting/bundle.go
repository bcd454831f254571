package splitting

import (
	"errors"
	"fmt"
)

// Errors for bundle mapping validation
var (
	ErrBundleEmptySKU          = errors.New("splitting: bundle SKU must not be empty")
	ErrBundleNoComponents      = errors.New("splitting: bundle has no components")
	ErrBundleEmptyComponentSKU = errors.New("splitting: component SKU must not be empty")
	ErrBundleInvalidQuantity   = errors.New("splitting: component quantity per bundle must be positive")
	ErrBundleDuplicateSKU      = errors.New("splitting: duplicate component SKU within bundle")
	ErrBundleSKUCollision      = errors.New("splitting: SKU is both a bundle and a component")
)

// ComponentSpec describes one constituent item of a bundle.
type ComponentSpec struct {
	// SKU is the component's stock-keeping unit
	SKU string
	// Title is the display title for the emitted line item
	Title string
	// QuantityPerBundle is how many units one bundle contains (positive)
	QuantityPerBundle int
}

// BundleMapping maps a bundle SKU to its ordered component list.
// It is loaded once at startup, validated, and treated as immutable for
// the process lifetime; the resolver receives it explicitly on every call.
type BundleMapping map[string][]ComponentSpec

// Validate checks the mapping's structural invariants.
//
// The disjointness rule (a SKU is never both a bundle key and a component
// SKU) is what makes splitting safe under webhook redelivery: running the
// resolver over its own output can never match again. A bundle with an
// empty component list would silently delete the line item, so it is
// rejected as a configuration error rather than honored.
func (m BundleMapping) Validate() error {
	componentOwner := make(map[string]string)
	for bundleSKU, components := range m {
		if bundleSKU == "" {
			return ErrBundleEmptySKU
		}
		if len(components) == 0 {
			return fmt.Errorf("%w: %q", ErrBundleNoComponents, bundleSKU)
		}
		seen := make(map[string]struct{}, len(components))
		for _, c := range components {
			if c.SKU == "" {
				return fmt.Errorf("%w: bundle %q", ErrBundleEmptyComponentSKU, bundleSKU)
			}
			if c.QuantityPerBundle <= 0 {
				return fmt.Errorf("%w: bundle %q component %q", ErrBundleInvalidQuantity, bundleSKU, c.SKU)
			}
			if _, dup := seen[c.SKU]; dup {
				return fmt.Errorf("%w: bundle %q component %q", ErrBundleDuplicateSKU, bundleSKU, c.SKU)
			}
			seen[c.SKU] = struct{}{}
			componentOwner[c.SKU] = bundleSKU
		}
	}
	for bundleSKU := range m {
		if owner, ok := componentOwner[bundleSKU]; ok {
			return fmt.Errorf("%w: %q (component of %q)", ErrBundleSKUCollision, bundleSKU, owner)
		}
	}
	return nil
}

// SKUs returns the set of bundle SKUs in the mapping.
// Order is unspecified; callers sort if they need stable output.
func (m BundleMapping) SKUs() []string {
	skus := make([]string, 0, len(m))
	for sku := range m {
		skus = append(skus, sku)
	}
	return skus
}

// Lookup returns the component list for a bundle SKU, if any.
func (m BundleMapping) Lookup(sku string) ([]ComponentSpec, bool) {
	components, ok := m[sku]
	return components, ok
}
