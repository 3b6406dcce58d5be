// Package icon renders status symbols in the variant selected by icons.variant.
package icon

import (
	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/key"
)

// Supported variants.
const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Retry
	Download
	Server
	Health
)

type variants struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

func (v variants) render(variant string) string {
	switch variant {
	case emoji:
		return v.emoji
	case nerd:
		return v.nerd
	case plain:
		return v.plain
	case squares:
		return v.squares
	default:
		return ""
	}
}

var icons = map[Icon]variants{
	Success:  {emoji: "✅", nerd: "", plain: "✓", squares: "🟩"},
	Fail:     {emoji: "❌", nerd: "", plain: "✗", squares: "🟥"},
	Progress: {emoji: "⏳", nerd: "", plain: "…", squares: "🟦"},
	Retry:    {emoji: "🔁", nerd: "", plain: "↻", squares: "🟨"},
	Download: {emoji: "📥", nerd: "", plain: "↓", squares: "🟪"},
	Server:   {emoji: "🛰️", nerd: "", plain: "●", squares: "🟫"},
	Health:   {emoji: "💚", nerd: "", plain: "♥", squares: "🟩"},
}

// Get renders i in the configured variant. Unknown variants render empty.
func Get(i Icon) string {
	return icons[i].render(viper.GetString(key.IconsVariant))
}
