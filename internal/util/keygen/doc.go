// Package keygen generates admin SSH key pairs for remote targets.
//
// Private keys are PEM encoded, public keys use the OpenSSH
// authorized_keys format so they can be appended on the target host.
package keygen
