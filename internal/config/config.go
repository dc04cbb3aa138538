// Package config loads the songdb configuration file (HCL).
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/songdb/internal/db"
)

// file is the HCL schema:
//
//	database {
//	  path            = "/var/lib/songdb/db"
//	  compress        = true
//	  cache_directory = "/var/cache/songdb"
//	}
type file struct {
	Database databaseBlock `hcl:"database,block"`
}

type databaseBlock struct {
	Path           string `hcl:"path"`
	Compress       *bool  `hcl:"compress,optional"`
	CacheDirectory string `hcl:"cache_directory,optional"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (db.Config, error) {
	var f file
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return db.Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return fromFile(f)
}

// Parse decodes configuration from memory. filename selects the HCL
// dialect by extension and labels diagnostics.
func Parse(filename string, src []byte) (db.Config, error) {
	var f file
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return db.Config{}, fmt.Errorf("parse config %s: %w", filename, err)
	}
	return fromFile(f)
}

func fromFile(f file) (db.Config, error) {
	if f.Database.Path == "" {
		return db.Config{}, fmt.Errorf("config: database path is required")
	}

	compress := true
	if f.Database.Compress != nil {
		compress = *f.Database.Compress
	}

	return db.Config{
		Path:           f.Database.Path,
		Compress:       compress,
		CacheDirectory: f.Database.CacheDirectory,
	}, nil
}
