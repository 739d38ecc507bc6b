// Package registry maps live entities to their unique proxy objects.
//
// The Registry is the identity half of the proxy model: whichever path a
// caller takes to reach an entity (find, walk, edge endpoint, callback), the
// façade asks the registry first and only mints a proxy when none exists, so
// the same entity always yields the same proxy instance.
//
// It also owns the extended attribute tables: per-entity key/value pairs that
// do not fit the string-only declared attributes. Each table is identified by
// a generated token and is released together with the proxy on Unregister.
package registry
