package types

// DiscoveredDevice identifies one device found during discovery
type DiscoveredDevice struct {
	Path     string   // device node, e.g. /dev/sda
	TypeHint string   // smartctl -d argument, empty or "auto" when unknown
	Protocol Protocol // best guess from discovery, refined after collection
}
