// Package provider implements the completion capability against real
// model endpoints, plus a scriptable mock for tests.
package provider

import "github.com/ZaguanLabs/glossia"

// Completer is an alias to the main package interface for convenience.
type Completer = glossia.Completer

// CompletionRequest is an alias to the main package type.
type CompletionRequest = glossia.CompletionRequest

// CompletionStream is an alias to the main package type.
type CompletionStream = glossia.CompletionStream
