// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package appforge

import "fmt"

// ConfigurationError is an invalid combination of generation options. It is
// raised before any filesystem effect occurs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// TargetExistsError is the pre-flight abort raised when the target directory
// already exists. It is the only expected failure, everything downstream is
// fatal to the run.
type TargetExistsError struct {
	Path string
}

func (e *TargetExistsError) Error() string {
	return fmt.Sprintf("target directory %s already exists", e.Path)
}

// RenderError is a template or code formatting failure for a specific file.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s failed: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// MissingAppendTargetError is raised when an append rule file is processed
// before its base target was written. It indicates a catalog ordering bug,
// not a recoverable condition.
type MissingAppendTargetError struct {
	Source string
	Target string
}

func (e *MissingAppendTargetError) Error() string {
	return fmt.Sprintf("cannot append %s: target %s does not exist", e.Source, e.Target)
}
