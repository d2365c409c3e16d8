// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func descriptorSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		err = c.AddResource("addon.schema.json", doc)
		if err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}

		compiledSchema, compileErr = c.Compile("addon.schema.json")
	})

	return compiledSchema, compileErr
}

// validateDescriptor checks a YAML descriptor document against the embedded
// JSON schema, rejecting unknown and malformed shapes before they can fail
// later during composition.
func validateDescriptor(data []byte) error {
	schema, err := descriptorSchema()
	if err != nil {
		return err
	}

	var raw any
	err = yaml.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	// round trip through JSON so the validator sees json.Number values
	// rather than the yaml decoder's native types
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return err
	}

	return schema.Validate(inst)
}
