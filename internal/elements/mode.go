package elements

import (
	"github.com/ivlev/scenecomposer/internal/assets"
	"github.com/ivlev/scenecomposer/internal/script"
)

// Mode decides which element builder lays out a scene
type Mode string

const (
	CharacterMode        Mode = "character"
	StrongBackgroundMode Mode = "strong_background"
	SimpleBackgroundMode Mode = "simple_background"
)

// DetermineMode classifies a scene from its matched assets.
// A character always wins, even over an explicit background override.
func DetermineMode(matches []assets.Match, overrides *script.Overrides) Mode {
	for _, m := range matches {
		if m.Asset.Category == assets.Character {
			return CharacterMode
		}
	}

	if overrides != nil && len(overrides.BgAssetIDs) > 0 {
		return StrongBackgroundMode
	}
	for _, m := range matches {
		if m.Asset.Category == assets.Background {
			return StrongBackgroundMode
		}
	}

	return SimpleBackgroundMode
}
