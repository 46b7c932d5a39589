// Package meta defines the metadata model for dynamically defined entity
// types: attributes, entity types, packages, and tags, together with the
// contracts the metadata service depends on (physical backends, live
// repository handles, permission gate, locale provider) and the dependency
// resolver that orders entity types by their reference attributes.
//
// The model is self-describing: the tables holding entity-type, attribute,
// package, and tag rows are themselves entity types expressed in this model
// and materialized in the default backend at bootstrap.
package meta
