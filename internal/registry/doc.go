// Package registry implements the durable registries for packages,
// attributes, and entity types. Definitions are persisted as rows of the
// self-describing metadata tables through their live repository handles, and
// each registry keeps an in-memory cache that is rebuilt wholesale from
// persisted state on bootstrap and after structural changes.
package registry
