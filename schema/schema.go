// SPDX-License-Identifier: Apache-2.0

// Package schema embeds the bundled dbinfo JSON Schema document so the CLI
// binary carries its own validation copy instead of reading one off disk at
// runtime.
package schema

import _ "embed"

//go:embed dbinfo.schema.json
var DBInfoSchemaJSON []byte
