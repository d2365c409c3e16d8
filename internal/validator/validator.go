// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package validator evaluates boolean validation expressions against an
// environment using the expr language. The CLI uses it to validate user
// supplied values like project names before a run starts.
package validator

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Validate evaluates expression against env and returns its boolean result.
func Validate(env map[string]any, expression string) (bool, error) {
	e := map[string]any{}
	for k, v := range env {
		e[k] = v
	}

	prog, err := expr.Compile(expression, expr.Env(e), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("invalid validation expression %q: %w", expression, err)
	}

	out, err := expr.Run(prog, e)
	if err != nil {
		return false, err
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("validation expression %q did not return a boolean", expression)
	}

	return b, nil
}

// SurveyValidator adapts an expression into a survey validator. The value
// being validated is exposed to the expression as "value". Empty values pass
// unless required is set.
func SurveyValidator(expression string, required bool) func(any) error {
	return func(val any) error {
		s, ok := val.(string)
		if !ok {
			s = fmt.Sprintf("%v", val)
		}

		if s == "" && !required {
			return nil
		}

		passed, err := Validate(map[string]any{"value": s}, expression)
		if err != nil {
			return err
		}

		if !passed {
			return fmt.Errorf("validation using %q did not pass", expression)
		}

		return nil
	}
}
