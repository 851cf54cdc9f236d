// Package auth provides the session-resolving middleware and the
// server-side role gates for privileged routes.
package auth
