// Package uniuri generates cryptographically secure random strings suitable
// for use as unique identifiers, including the opaque uids of platform
// identities.
package uniuri
