// Package hcloud resolves remote host references through the Hetzner Cloud
// API.
//
// A host written as hcloud:<server-name> is looked up by name and replaced
// with the server's public IPv4 address, falling back to its public IPv6
// address and then to its first private network address. Lookups are
// retried with exponential backoff when the API is rate limited or the
// server is locked, and cached for the lifetime of the resolver so every
// step of a run dials the same address.
package hcloud
