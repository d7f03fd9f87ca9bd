// Package diag implements the error taxonomy of spec §7: invariant
// violations and translation failures are fatal and unwind to the pipeline
// driver, analysis limitations are surfaced as warnings while the analysis
// continues conservatively, and invalid configuration is rejected before any
// pass runs. It follows the teacher's convention of wrapping stdlib errors
// with fmt.Errorf("%w", ...) rather than introducing a parallel error
// hierarchy.
package diag

import "fmt"

// InvariantError reports a violated structural invariant (e.g. a CFG that
// is not closed, a region result whose type mismatches its port). These are
// always fatal.
type InvariantError struct {
	Invariant string
	Err       error
}

func (e *InvariantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violated (%s): %v", e.Invariant, e.Err)
	}
	return fmt.Sprintf("invariant violated: %s", e.Invariant)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// Invariant builds a fatal InvariantError naming the violated invariant.
func Invariant(name string, err error) error {
	return &InvariantError{Invariant: name, Err: err}
}

// Invariantf is Invariant with a formatted detail message.
func Invariantf(name, format string, args ...any) error {
	return &InvariantError{Invariant: name, Err: fmt.Errorf(format, args...)}
}

// TranslationError reports a fatal failure while translating an LLIR
// construct into its RVSDG equivalent (unknown operation, type mismatch at
// a builder boundary), carrying the source location it occurred at.
type TranslationError struct {
	Location string
	Err      error
}

func (e *TranslationError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("translation failed: %v", e.Err)
	}
	return fmt.Sprintf("translation failed at %s: %v", e.Location, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

func Translation(location string, err error) error {
	return &TranslationError{Location: location, Err: err}
}

// ConfigError reports invalid optimiser/driver configuration, rejected
// before any pass runs.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func Config(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// Warning reports an analysis limitation (spec §7): the analysis continues,
// but conservatively. Warnings are collected rather than returned as errors.
type Warning struct {
	Source string
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Source, w.Detail)
}

// Warnings accumulates Warning values across a pass run.
type Warnings struct {
	items []Warning
}

func (w *Warnings) Add(source, detail string, args ...any) {
	w.items = append(w.items, Warning{Source: source, Detail: fmt.Sprintf(detail, args...)})
}

func (w *Warnings) Items() []Warning {
	return append([]Warning(nil), w.items...)
}

func (w *Warnings) Empty() bool { return len(w.items) == 0 }
