// SPDX-License-Identifier: Apache-2.0

package introspect

import (
	"bytes"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// LoadSchema compiles the dbinfo JSON Schema at path (schema/dbinfo.schema.json
// in the repository layout) for use with SetSchema.
func LoadSchema(path string) (*jsonschema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dbinfo schema %s: %w", path, err)
	}
	defer f.Close()

	doc, err := jsonschema.UnmarshalJSON(f)
	if err != nil {
		return nil, fmt.Errorf("parsing dbinfo schema %s: %w", path, err)
	}
	return compile(path, doc)
}

// LoadSchemaBytes compiles a dbinfo JSON Schema document already resident
// in memory (the CLI's embedded copy, via the schema package), so
// validation doesn't depend on the working directory at runtime.
func LoadSchemaBytes(name string, data []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing dbinfo schema %s: %w", name, err)
	}
	return compile(name, doc)
}

func compile(name string, doc any) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding dbinfo schema resource: %w", err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling dbinfo schema %s: %w", name, err)
	}
	return sch, nil
}
