// Package schemas embeds the JSON Schemas for probscore YAML files.
package schemas

import _ "embed"

//go:embed suite.schema.json
var SuiteSchemaJSON string

//go:embed project.schema.json
var ProjectSchemaJSON string
