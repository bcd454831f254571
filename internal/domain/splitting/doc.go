// Package splitting contains the bundle-splitting bounded context.
// This context rewrites inbound orders so that bundle SKUs are replaced
// by their constituent component SKUs.
//
// Key concepts:
//   - BundleMapping: Static configuration mapping a bundle SKU to its components
//   - Resolve: Pure function expanding bundle line items into component items
//   - OrderStore: Port interface for the external order store (Shopify)
//   - DeliveryDeduper: Port interface for webhook-delivery deduplication
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package splitting
