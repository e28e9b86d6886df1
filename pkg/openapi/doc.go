// Package openapi scaffolds schema trees from OpenAPI operations. Each
// operation's request body becomes a level of fields with widgets and
// validators inferred from the JSON Schema keywords, plus a model seeded from
// schema defaults.
package openapi
