// Package main provides the entry point for the VendaHub platform service.
// It starts a Fiber web server exposing the session-authenticated callable
// operations for role assignment, user administration and gamification stats,
// backed by a relational store.
package main
