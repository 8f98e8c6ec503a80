package wava

import _ "embed"

// defaultStandards is the bundled road-running standards document, used
// when no table path is configured.
//
//go:embed standards.json
var defaultStandards []byte

// LoadDefault loads the bundled standards table.
func LoadDefault(opts ...Option) (*Table, error) {
	return Load(defaultStandards, opts...)
}
