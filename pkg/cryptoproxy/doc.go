// Package cryptoproxy is the client-facing library surface of the
// process-isolated cryptography service. It wires internal/transport,
// internal/engine, internal/registry and internal/handle into the typed
// Provider/Hash/Cipher/... handles an application actually calls: obtain
// a Provider by UID, then perform factory and method calls on the
// handles it returns.
//
// Every handle type here is a thin shim over *handle.Core: it names a
// wire.TaskID per method and forwards arguments. Certificate additionally
// caches its verification Status. Cross-cutting
// capabilities (identifiable, serializable, keyed, reset-able) are not
// reified as Go interfaces here because nothing in this package needs to
// treat handles polymorphically across kinds -- each concrete type's
// method set already is its capability set.
package cryptoproxy
