package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

const (
	componentTypeCoreConstant     = "core"
	componentTypeAPIConstant      = "api"
	componentTypeMS1Constant      = "ms1"
	componentTypeMS2Constant      = "ms2"
	componentTypeSDKConstant      = "sdk"
	componentTypeUIConstant       = "ui"
	componentTypePackagesConstant = "packages"

	jsonObjectPrefixConstant               = "{"
	qualifiedNameSeparatorConstant         = "/"
	componentTypeListSeparatorConstant     = " | "
	descriptorNameFieldConstant            = "name"
	descriptorRepositoryFieldConstant      = "repo"
	catalogReadErrorTemplateConstant       = "unable to read component catalog %s: %w"
	catalogParseErrorTemplateConstant      = "unable to parse component catalog: %w"
	componentDecodeErrorTemplateConstant   = "component %s/%s: %w"
	unknownComponentTypeTemplateConstant   = "invalid type %q, expected one of [ %s ]"
	duplicateComponentCodeTemplateConstant = "component code %q declared under both %s and %s"
	missingDescriptorFieldTemplateConstant = "component %s/%s is missing %q"
	emptyComponentCodeTemplateConstant     = "component type %s declares an empty code"
	emptyCatalogMessageConstant            = "component catalog declares no components"
)

// ComponentType is one of the fixed component groupings.
type ComponentType string

// Supported component types in their canonical order.
const (
	ComponentTypeCore     ComponentType = componentTypeCoreConstant
	ComponentTypeAPI      ComponentType = componentTypeAPIConstant
	ComponentTypeMS1      ComponentType = componentTypeMS1Constant
	ComponentTypeMS2      ComponentType = componentTypeMS2Constant
	ComponentTypeSDK      ComponentType = componentTypeSDKConstant
	ComponentTypeUI       ComponentType = componentTypeUIConstant
	ComponentTypePackages ComponentType = componentTypePackagesConstant
)

var componentTypeOrder = []ComponentType{
	ComponentTypeCore,
	ComponentTypeAPI,
	ComponentTypeMS1,
	ComponentTypeMS2,
	ComponentTypeSDK,
	ComponentTypeUI,
	ComponentTypePackages,
}

// ErrUnknownComponentType is matched by every UnknownComponentTypeError.
var ErrUnknownComponentType = errors.New("unknown component type")

// ErrEmptyCatalog reports a catalog document without any component.
var ErrEmptyCatalog = errors.New(emptyCatalogMessageConstant)

// UnknownComponentTypeError reports a type outside the fixed enumeration.
type UnknownComponentTypeError struct {
	Value string
}

// Error lists the accepted types.
func (failure UnknownComponentTypeError) Error() string {
	return fmt.Sprintf(unknownComponentTypeTemplateConstant, failure.Value, strings.Join(ComponentTypeNames(), componentTypeListSeparatorConstant))
}

// Is matches ErrUnknownComponentType.
func (failure UnknownComponentTypeError) Is(target error) bool {
	return target == ErrUnknownComponentType
}

// ComponentTypes returns every component type in canonical order.
func ComponentTypes() []ComponentType {
	return append([]ComponentType(nil), componentTypeOrder...)
}

// ComponentTypeNames returns the string form of every component type in canonical order.
func ComponentTypeNames() []string {
	names := make([]string, 0, len(componentTypeOrder))
	for _, componentType := range componentTypeOrder {
		names = append(names, string(componentType))
	}
	return names
}

// ParseComponentType validates raw against the enumeration. Matching is exact.
func ParseComponentType(raw string) (ComponentType, error) {
	for _, componentType := range componentTypeOrder {
		if string(componentType) == raw {
			return componentType, nil
		}
	}
	return "", UnknownComponentTypeError{Value: raw}
}

// Descriptor describes one component declared in the catalog.
type Descriptor struct {
	Code          string
	Type          ComponentType
	Name          string
	RepositoryURL string
}

// QualifiedName joins type and name, for example "api/service-one".
func (descriptor Descriptor) QualifiedName() string {
	return string(descriptor.Type) + qualifiedNameSeparatorConstant + descriptor.Name
}

type descriptorRecord struct {
	Name       string `mapstructure:"name"`
	Repository string `mapstructure:"repo"`
}

// Catalog is the validated, immutable set of component descriptors.
type Catalog struct {
	descriptorsByType map[ComponentType][]Descriptor
	descriptorsByCode map[string]Descriptor
}

// Load reads and validates the catalog at path. JSON and YAML documents are both accepted.
func Load(path string) (Catalog, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		return Catalog{}, fmt.Errorf(catalogReadErrorTemplateConstant, path, readError)
	}
	return Parse(content)
}

// Parse validates a catalog document of the shape {type: {code: {name, repo}}}.
// Unknown descriptor keys and documents without components are rejected.
// Documents starting with "{" are read as JSON, everything else as YAML.
func Parse(content []byte) (Catalog, error) {
	document := map[string]map[string]map[string]any{}
	unmarshal := yaml.Unmarshal
	if bytes.HasPrefix(bytes.TrimSpace(content), []byte(jsonObjectPrefixConstant)) {
		unmarshal = json.Unmarshal
	}
	if parseError := unmarshal(content, &document); parseError != nil {
		return Catalog{}, fmt.Errorf(catalogParseErrorTemplateConstant, parseError)
	}

	parsedCatalog := Catalog{
		descriptorsByType: make(map[ComponentType][]Descriptor, len(document)),
		descriptorsByCode: make(map[string]Descriptor),
	}

	rawTypes := make([]string, 0, len(document))
	for rawType := range document {
		rawTypes = append(rawTypes, rawType)
	}
	sort.Strings(rawTypes)

	for _, rawType := range rawTypes {
		componentType, typeError := ParseComponentType(rawType)
		if typeError != nil {
			return Catalog{}, typeError
		}

		codes := make([]string, 0, len(document[rawType]))
		for code := range document[rawType] {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			descriptor, descriptorError := decodeDescriptor(componentType, code, document[rawType][code])
			if descriptorError != nil {
				return Catalog{}, descriptorError
			}
			if existing, duplicate := parsedCatalog.descriptorsByCode[code]; duplicate {
				return Catalog{}, fmt.Errorf(duplicateComponentCodeTemplateConstant, code, existing.Type, componentType)
			}
			parsedCatalog.descriptorsByCode[code] = descriptor
			parsedCatalog.descriptorsByType[componentType] = append(parsedCatalog.descriptorsByType[componentType], descriptor)
		}
	}

	if len(parsedCatalog.descriptorsByCode) == 0 {
		return Catalog{}, ErrEmptyCatalog
	}
	return parsedCatalog, nil
}

func decodeDescriptor(componentType ComponentType, code string, fields map[string]any) (Descriptor, error) {
	if len(strings.TrimSpace(code)) == 0 {
		return Descriptor{}, fmt.Errorf(emptyComponentCodeTemplateConstant, componentType)
	}

	record := descriptorRecord{}
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &record,
	})
	if decoderError != nil {
		return Descriptor{}, decoderError
	}
	if decodeError := decoder.Decode(fields); decodeError != nil {
		return Descriptor{}, fmt.Errorf(componentDecodeErrorTemplateConstant, componentType, code, decodeError)
	}

	record.Name = strings.TrimSpace(record.Name)
	record.Repository = strings.TrimSpace(record.Repository)
	if len(record.Name) == 0 {
		return Descriptor{}, fmt.Errorf(missingDescriptorFieldTemplateConstant, componentType, code, descriptorNameFieldConstant)
	}
	if len(record.Repository) == 0 {
		return Descriptor{}, fmt.Errorf(missingDescriptorFieldTemplateConstant, componentType, code, descriptorRepositoryFieldConstant)
	}

	return Descriptor{Code: code, Type: componentType, Name: record.Name, RepositoryURL: record.Repository}, nil
}

// Descriptors returns the descriptors of the requested types, or of every type when none is requested.
// Types follow canonical order and codes within a type are sorted.
func (catalog Catalog) Descriptors(filter ...ComponentType) []Descriptor {
	requested := make(map[ComponentType]bool, len(filter))
	for _, componentType := range filter {
		requested[componentType] = true
	}

	descriptors := make([]Descriptor, 0, len(catalog.descriptorsByCode))
	for _, componentType := range componentTypeOrder {
		if len(filter) > 0 && !requested[componentType] {
			continue
		}
		descriptors = append(descriptors, catalog.descriptorsByType[componentType]...)
	}
	return descriptors
}
