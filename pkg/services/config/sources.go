package config

import (
	"context"
	"fmt"
	"slices"

	"gopkg.in/ini.v1"
)

// SourceProfile is a named SQL connection from the sources file, e.g.
//
//	[warehouse]
//	driver = snowflake
//	dsn = user:pass@account/db/schema
type SourceProfile struct {
	Name    string
	Driver  string
	DSN     string
	InitSQL []string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*SourceProfile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources file: %w", err)
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
	slices.Sort(profiles)
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*SourceProfile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil || len(section.Keys()) == 0 {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	profile := &SourceProfile{
		Name:   name,
		Driver: section.Key("driver").String(),
		DSN:    section.Key("dsn").String(),
	}
	if profile.Driver == "" {
		return nil, fmt.Errorf("profile %s has no driver", name)
	}
	if section.HasKey("init_sql") {
		for _, q := range section.Key("init_sql").ValueWithShadows() {
			if q != "" {
				profile.InitSQL = append(profile.InitSQL, q)
			}
		}
	}
	return profile, nil
}
