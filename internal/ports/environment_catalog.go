package ports

import "github.com/chiru781/cursior/internal/domain"

// EnvironmentCatalog lists the environment presets known to a workspace.
type EnvironmentCatalog interface {
	ListPresets(root string) ([]domain.Preset, error)
	Preset(root, name string) (domain.Preset, bool, error)
}
