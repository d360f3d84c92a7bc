// Package defaults provides embedded default assets (prompt template, config,
// and tradition registry).
package defaults

import _ "embed"

//go:embed default_prompt.md
var DefaultPrompt string

//go:embed default_config.json
var DefaultConfigJSON []byte

//go:embed traditions.toml
var DefaultTraditionsTOML []byte
