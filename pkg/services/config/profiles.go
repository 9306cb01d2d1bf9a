package config

import (
	"context"
	"fmt"

	"github.com/de-tools/usage-atlas/pkg/store/sqlite"
	"gopkg.in/ini.v1"
)

// Registry reads store connection profiles from an ini file. Each
// section names a profile and carries the sqlite settings for it.
type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetStoreSettings(ctx context.Context, profile string) (sqlite.Settings, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetStoreSettings(_ context.Context, profile string) (sqlite.Settings, error) {
	section, err := cr.cfg.GetSection(profile)
	if err != nil {
		return sqlite.Settings{}, fmt.Errorf("profile %s not found", profile)
	}

	dbPath := section.Key("db_path").String()
	if dbPath == "" {
		return sqlite.Settings{}, fmt.Errorf("profile %s has no db_path", profile)
	}

	return sqlite.Settings{DbPath: dbPath}, nil
}
