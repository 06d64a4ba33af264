package command

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/foxseedlab/gunkan/internal/repository"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Commands []catalogEntry `yaml:"commands"`
}

type catalogEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Disabled    bool   `yaml:"disabled"`
	AdminOnly   bool   `yaml:"admin_only"`
	Usage       string `yaml:"usage"`
}

// Catalog returns the built-in command definitions.
func Catalog() ([]repository.Command, error) {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		return nil, fmt.Errorf("parse command catalog: %w", err)
	}
	out := make([]repository.Command, 0, len(f.Commands))
	seen := make(map[string]struct{}, len(f.Commands))
	for _, e := range f.Commands {
		if e.Name == "" {
			return nil, fmt.Errorf("command catalog: entry without name")
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("command catalog: duplicate command %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		category := repository.CommandCategory(e.Category)
		if !validCategory(category) {
			return nil, fmt.Errorf("command catalog: %s has unknown category %q", e.Name, e.Category)
		}
		out = append(out, repository.Command{
			Name:        e.Name,
			Description: e.Description,
			Category:    category,
			Enabled:     !e.Disabled,
			AdminOnly:   e.AdminOnly,
			Usage:       e.Usage,
		})
	}
	return out, nil
}

// Seed inserts catalog commands that are not stored yet.
func Seed(ctx context.Context, repo repository.CommandRepository) error {
	commands, err := Catalog()
	if err != nil {
		return err
	}
	for _, c := range commands {
		if err := repo.EnsureCommand(ctx, c); err != nil {
			return fmt.Errorf("seed command %s: %w", c.Name, err)
		}
	}
	return nil
}

func validCategory(c repository.CommandCategory) bool {
	for _, known := range repository.CommandCategories {
		if c == known {
			return true
		}
	}
	return false
}
