// Package ssh provides the remote transport used by Remote execution targets.
//
// A [Client] dials authenticated connections (public key and/or password)
// with retry on transient network errors. A [Conn] runs any number of
// commands, each in its own session with optional piped stdin, and kills the
// remote process when the caller's context is cancelled.
//
// Security: Host key verification is disabled by default because nodes are
// freshly flashed and have no known key. Configure HostKeyCallback for hosts
// with a stable identity.
package ssh
