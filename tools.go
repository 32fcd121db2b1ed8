//go:build tools
// +build tools

// Package roomchat declares tool dependencies for this module.
//
// The mockgen import keeps go.mod and go.sum in sync with the version used by
// the go:generate directives, so `go generate ./...` works on a fresh checkout.
package roomchat

import (
	_ "go.uber.org/mock/mockgen"
)
