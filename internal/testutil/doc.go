// Package testutil provides fixtures shared by package tests: small
// relations, pre-populated registries and deterministic report IDs.
package testutil
