// Package entity holds the identity vocabulary shared by the entity store,
// the proxy registry and the façade: the three entity kinds, the
// generation-checked Handle used as the registry key, and the graph
// descriptor (directed/strict) with its four textual spellings.
package entity
