// Package repository is the client for the repository read API consumed by
// the facade: tree_entry lookups and, for reference pinning, commit
// resolution.
//
// Failures are typed. *NetworkError covers unreachable hosts, an open
// circuit breaker and non-2xx statuses. *DecodeError covers bodies that are
// not the expected JSON and blob content that is not valid base64. A
// cancelled context is returned wrapped as is.
package repository
