package users

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"academy.org/internal/auth"
	"academy.org/internal/config"
)

// LoadFile reads seeds from the "users" list of a YAML file. Entries may
// carry a bcrypt password_hash (see `authutil hash`) or a plaintext password
// that is hashed at cost.
func LoadFile(path string, cost int) (*Directory, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("users: load %s: %w", path, err)
	}
	var seeds []Seed
	if err := k.Unmarshal("users", &seeds); err != nil {
		return nil, fmt.Errorf("users: decode %s: %w", path, err)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("users: %s defines no users", path)
	}
	return FromSeeds(seeds, cost)
}

// Open builds the lookup selected by cfg.Source.
func Open(cfg config.UsersConfig) (auth.CredentialLookup, error) {
	switch cfg.Source {
	case config.UsersSourceMemory, "":
		return FromSeeds(DefaultSeeds(), cfg.BcryptCost)
	case config.UsersSourceFile:
		return LoadFile(cfg.File, cfg.BcryptCost)
	default:
		return nil, fmt.Errorf("users: unknown source %q", cfg.Source)
	}
}
