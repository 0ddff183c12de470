// Package openapi holds the slice of the OpenAPI 3 model the pipeline
// editor needs: an order-preserving document, schema classification, local
// "$ref" resolution over the raw document tree, validation through
// kin-openapi, and JSONPath queries.
package openapi
