// Package cmd implements the songdb command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/songdb/internal/config"
	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/dbformat"
)

var (
	cfgPath  string
	dbPath   string
	cacheDir string
	compress bool
)

var rootCmd = &cobra.Command{
	Use:   "songdb",
	Short: "Inspect and manage a songdb media metadata database",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "Path to config file (HCL)")
	pf.StringVar(&dbPath, "db", "", "Database file (overrides config)")
	pf.StringVar(&cacheDir, "cache-dir", "", "Cache directory for storage mounts (with --db)")
	pf.BoolVar(&compress, "compress", true, "Compress the database file on save (with --db)")
}

// loadConfig resolves the database configuration from --db or the config
// file (explicit or the default location).
func loadConfig() (db.Config, error) {
	if dbPath != "" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return db.Config{}, err
		}
		return db.Config{Path: abs, Compress: compress, CacheDirectory: cacheDir}, nil
	}

	path := cfgPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return db.Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, ".agentic-research", "songdb", "config.hcl")
	}
	return config.Load(path)
}

// openDatabase opens the configured database, falling back to an empty
// library when the file is missing or unreadable but writable.
func openDatabase() (*db.SimpleDB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	d, err := db.New(osfs.New("/"), dbformat.New(), db.NewTreeLock(), cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Open(); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return d, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
