/*
Package observability exposes Prometheus collectors for namespace and backend activity.

Metrics feed from the domain.Hooks emitted by namespace stores and from a backend
middleware, so the core packages never import Prometheus directly.
*/
package observability
