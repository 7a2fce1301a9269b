// Package diregistry is a small, explicit dependency injection registry for Go.
//
// Components are registered under string keys together with the ordered keys
// of their dependencies, and resolved on demand by walking that table:
//
//   - di: the Registry, the Resolver and the registration marker
//     (Injectable / Register0..3), plus config loading and graph validation
//   - cmd/digen: generates registration functions from a yaml descriptor
//   - examples/basic: init()-time registration into the process-wide registry
//   - examples/generated: a package wired entirely by digen output
//
// There is no reflection over constructor signatures. Dependency order is
// declared once, next to the constructor, and checked when the graph is
// validated or resolved.
package diregistry
