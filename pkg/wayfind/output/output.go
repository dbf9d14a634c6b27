// Package output provides formatters for displaying search results in
// various output formats (pretty, plain, paths, json, yaml, tree, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/types"
)

// Result contains the complete output data for formatting: the search
// result itself plus presentation metadata about where the candidates
// came from.
type Result struct {
	// Search is the ranked search result being displayed.
	Search *types.SearchResult

	// DaemonUp indicates if the index daemon is running.
	DaemonUp bool

	// WatchActive indicates if the daemon is watching the search root.
	WatchActive bool

	// IndexAge is the age of the index snapshot the candidates came from.
	// Zero when the search walked directly.
	IndexAge time.Duration

	// Interrupted indicates the search was cancelled by the user.
	Interrupted bool

	// Warnings contains warning messages to surface alongside results.
	Warnings []string
}

// BestScore returns the score of the top-ranked match, or zero when there
// are no matches.
func (r *Result) BestScore() float64 {
	if r.Search == nil || len(r.Search.Matches) == 0 {
		return 0
	}
	return r.Search.Matches[0].Score
}

// Matches returns the ranked matches, or nil when the search never ran.
func (r *Result) Matches() []types.Match {
	if r.Search == nil {
		return nil
	}
	return r.Search.Matches
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
