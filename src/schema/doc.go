// Package schema builds JSON Schema fragments for tools whose arguments are
// declared by hand rather than reflected from a struct.
//
//	params := schema.CreateObjectSchema(map[string]*jsonschema.Schema{
//		"symbol": schema.CreateStringSchema("Ticker symbol, e.g. AAPL"),
//	}, []string{"symbol"})
package schema
