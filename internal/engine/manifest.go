package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// manifestSchema validates a user engine manifest before any descriptor
// is built from it, so a malformed manifest fails with field-level
// messages instead of a half-registered engine.
const manifestSchema = `{
  "type": "object",
  "required": ["engines"],
  "additionalProperties": false,
  "properties": {
    "engines": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "kind", "executable"],
        "additionalProperties": false,
        "properties": {
          "name":        {"type": "string", "minLength": 1},
          "kind":        {"type": "string", "enum": ["filelist", "glue"]},
          "executable":  {"type": "string", "minLength": 1},
          "glue":        {"type": "string"},
          "runtime":     {"type": "string"},
          "install_dir": {"type": "string"},
          "platforms":   {"type": "array", "items": {"type": "string"}},
          "summary":     {"type": "string"}
        }
      }
    }
  }
}`

type manifestFile struct {
	Engines []manifestEngine `yaml:"engines"`
}

type manifestEngine struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Executable string   `yaml:"executable"`
	Glue       string   `yaml:"glue"`
	Runtime    string   `yaml:"runtime"`
	InstallDir string   `yaml:"install_dir"`
	Platforms  []string `yaml:"platforms"`
	Summary    string   `yaml:"summary"`
}

// LoadManifest merges user-defined engines from a YAML manifest into
// the registry. Glue engines default the runtime stub to the
// executable when none is given.
func (r *Registry) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read engine manifest: %w", err)
	}

	var raw any

	unmarshalErr := yaml.Unmarshal(data, &raw)
	if unmarshalErr != nil {
		return fmt.Errorf("parse engine manifest %s: %w", path, unmarshalErr)
	}

	validateErr := validateManifest(raw)
	if validateErr != nil {
		return fmt.Errorf("engine manifest %s: %w", path, validateErr)
	}

	var file manifestFile
	// Round two through the typed struct; the schema already vouched
	// for the shape.
	_ = yaml.Unmarshal(data, &file)

	for _, entry := range file.Engines {
		d := &Descriptor{
			Name:       entry.Name,
			Kind:       Kind(entry.Kind),
			Executable: entry.Executable,
			Glue:       entry.Glue,
			Runtime:    entry.Runtime,
			InstallDir: entry.InstallDir,
			Platforms:  entry.Platforms,
			Summary:    entry.Summary,
		}

		if d.Kind == KindGlue && d.Runtime == "" {
			d.Runtime = d.Executable
		}

		registerErr := r.Register(d)
		if registerErr != nil {
			return fmt.Errorf("engine manifest %s: %w", path, registerErr)
		}
	}

	return nil
}

func validateManifest(raw any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(manifestSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("invalid manifest: %s", strings.Join(msgs, "; "))
}
