package fleet

import (
	"fmt"
	"strings"

	pathutils "github.com/temirov/repofleet/internal/utils/path"
)

const (
	defaultCatalogPathConstant          = "components.json"
	defaultComponentsRootConstant       = "components"
	defaultMetadataRootConstant         = "meta"
	defaultRemoteNameConstant           = "origin"
	catalogKeySuffixConstant            = ".catalog"
	componentsRootKeySuffixConstant     = ".components_root"
	metadataRootKeySuffixConstant       = ".metadata_root"
	concurrencyKeySuffixConstant        = ".concurrency"
	remoteKeySuffixConstant             = ".remote"
	pathResolutionErrorTemplateConstant = "invalid %s: %w"
	catalogSettingNameConstant          = "catalog path"
	componentsRootSettingNameConstant   = "components root"
	metadataRootSettingNameConstant     = "metadata root"
)

// Configuration locates the catalog, working copies and registry and tunes batch execution.
type Configuration struct {
	CatalogPath    string `mapstructure:"catalog"`
	ComponentsRoot string `mapstructure:"components_root"`
	MetadataRoot   string `mapstructure:"metadata_root"`
	Concurrency    int    `mapstructure:"concurrency"`
	RemoteName     string `mapstructure:"remote"`
}

// DefaultConfiguration mirrors the layout of a checkout: a catalog file with components and meta
// directories beside it.
func DefaultConfiguration() Configuration {
	return Configuration{
		CatalogPath:    defaultCatalogPathConstant,
		ComponentsRoot: defaultComponentsRootConstant,
		MetadataRoot:   defaultMetadataRootConstant,
		Concurrency:    0,
		RemoteName:     defaultRemoteNameConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed for the configuration loader.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + catalogKeySuffixConstant:        defaults.CatalogPath,
		prefix + componentsRootKeySuffixConstant: defaults.ComponentsRoot,
		prefix + metadataRootKeySuffixConstant:   defaults.MetadataRoot,
		prefix + concurrencyKeySuffixConstant:    defaults.Concurrency,
		prefix + remoteKeySuffixConstant:         defaults.RemoteName,
	}
}

// Resolve trims values, fills blanks from the defaults and turns every path absolute.
func (configuration Configuration) Resolve(expander *pathutils.HomeExpander) (Configuration, error) {
	defaults := DefaultConfiguration()
	resolved := Configuration{
		CatalogPath:    valueOrDefault(configuration.CatalogPath, defaults.CatalogPath),
		ComponentsRoot: valueOrDefault(configuration.ComponentsRoot, defaults.ComponentsRoot),
		MetadataRoot:   valueOrDefault(configuration.MetadataRoot, defaults.MetadataRoot),
		Concurrency:    configuration.Concurrency,
		RemoteName:     valueOrDefault(configuration.RemoteName, defaults.RemoteName),
	}
	if resolved.Concurrency < 0 {
		resolved.Concurrency = 0
	}
	if expander == nil {
		expander = pathutils.NewHomeExpander()
	}

	for _, setting := range []struct {
		name  string
		value *string
	}{
		{name: catalogSettingNameConstant, value: &resolved.CatalogPath},
		{name: componentsRootSettingNameConstant, value: &resolved.ComponentsRoot},
		{name: metadataRootSettingNameConstant, value: &resolved.MetadataRoot},
	} {
		absolutePath, resolveError := expander.ResolveAbsolute(*setting.value)
		if resolveError != nil {
			return Configuration{}, fmt.Errorf(pathResolutionErrorTemplateConstant, setting.name, resolveError)
		}
		*setting.value = absolutePath
	}
	return resolved, nil
}

func valueOrDefault(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
		return trimmed
	}
	return fallback
}
