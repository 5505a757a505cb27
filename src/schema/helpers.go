package schema

import (
	jsonschema "github.com/swaggest/jsonschema-go"
)

func simple(t jsonschema.SimpleType, description string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: &jsonschema.Type{SimpleTypes: &t}}
	if description != "" {
		s.Description = &description
	}
	return s
}

// CreateStringSchema creates a JSON schema for a string field
func CreateStringSchema(description string) *jsonschema.Schema {
	return simple(jsonschema.String, description)
}

// CreateNumberSchema creates a JSON schema for a floating point field
func CreateNumberSchema(description string) *jsonschema.Schema {
	return simple(jsonschema.Number, description)
}

// CreateIntSchema creates an integer field bounded to [minimum, maximum]
// with a default value.
func CreateIntSchema(description string, defaultValue, minimum, maximum int) *jsonschema.Schema {
	s := simple(jsonschema.Integer, description)
	def := interface{}(defaultValue)
	lo, hi := float64(minimum), float64(maximum)
	s.Default = &def
	s.Minimum = &lo
	s.Maximum = &hi
	return s
}

// CreateStringSchemaEnum creates a JSON schema for a string field with enum values
func CreateStringSchemaEnum(description string, enumValues []string) *jsonschema.Schema {
	s := CreateStringSchema(description)
	s.Enum = make([]interface{}, len(enumValues))
	for i, v := range enumValues {
		s.Enum[i] = v
	}
	return s
}

// CreateObjectSchema creates a JSON schema for an object with properties and required fields
func CreateObjectSchema(properties map[string]*jsonschema.Schema, required []string) *jsonschema.Schema {
	schemaProps := make(map[string]jsonschema.SchemaOrBool, len(properties))
	for name, prop := range properties {
		schemaProps[name] = jsonschema.SchemaOrBool{TypeObject: prop}
	}

	s := simple(jsonschema.Object, "")
	s.Properties = schemaProps
	s.Required = required
	return s
}
