// Package testutil contains small helpers shared by package tests: message
// builders, an in-process agent harness and event collectors.
package testutil
