// Package main provides the linguagw-cli tool for managing LinguaGateway
// deployments: config validation and offline inspection of the persisted
// stores.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	linguagw "github.com/lingua-labs/lingua-gateway"
	"github.com/lingua-labs/lingua-gateway/internal/glossary"
	"github.com/lingua-labs/lingua-gateway/internal/memory"
	"github.com/lingua-labs/lingua-gateway/internal/requestlog"
	"github.com/lingua-labs/lingua-gateway/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:           "linguagw-cli",
		Short:         "LinguaGateway command line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		validateCmd(),
		glossaryCmd(),
		memoryCmd(),
		auditCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a gateway configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := linguagw.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := linguagw.ValidateConfig(*cfg); err != nil {
				return fmt.Errorf("validation: %w", err)
			}
			fmt.Println("✓ Config is valid")
			fmt.Printf("  Backend:    %s\n", cfg.Backend.Name)
			fmt.Printf("  Tiers:      free=%s pro=%s\n", cfg.Tiers.Free, cfg.Tiers.Pro)
			fmt.Printf("  Memory:     %s\n", cfg.Memory.Path)
			fmt.Printf("  Glossaries: %s\n", cfg.Glossary.Path)
			if cfg.RateLimit.RequestsPerSecond > 0 {
				fmt.Printf("  Rate limit: %.1f req/s (burst %.0f)\n",
					cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
			}
			return nil
		},
	}
}

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Inspect and seed the glossary store file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <store-file>",
		Short: "List glossaries in a store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := glossary.NewStore(args[0], nil)
			ids := store.List()
			if len(ids) == 0 {
				fmt.Println("No glossaries.")
				return nil
			}
			for _, id := range ids {
				rec, err := store.Get(id)
				if err != nil {
					return err
				}
				fmt.Printf("%s  %-20s %d entries\n", rec.ID, rec.Name, len(rec.Entries))
			}
			return nil
		},
	})

	var name string
	importCmd := &cobra.Command{
		Use:   "import <store-file> <entries-file>",
		Short: "Import a JSON/YAML entries file as a new glossary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readEntries(args[1])
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
			}
			store := glossary.NewStore(args[0], nil)
			id := store.Create(name, entries)
			fmt.Printf("Created glossary %s (%q, %d entries)\n", id, name, len(entries))
			return nil
		},
	}
	importCmd.Flags().StringVar(&name, "name", "", "glossary name (defaults to the entries file name)")
	cmd.AddCommand(importCmd)

	return cmd
}

// readEntries parses a standalone entries file: a JSON or YAML list of
// {source, target} pairs.
func readEntries(path string) ([]glossary.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []glossary.Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, e := range entries {
		if e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("entry %d: source and target are both required", i)
		}
	}
	return entries, nil
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the translation memory file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "stats <memory-file>",
		Short: "Show entry counts for a translation memory file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := memory.NewFileStore(args[0], nil).Stats()
			fmt.Printf("Path:    %s\n", stats.Path)
			fmt.Printf("Entries: %d\n", stats.Entries)
			return nil
		},
	})
	return cmd
}

func auditCmd() *cobra.Command {
	var driver, dsn string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the translation audit log",
	}
	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Count stored audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w *requestlog.SQLWriter
			var err error
			if driver == "postgres" {
				w, err = requestlog.NewPostgresWriter(dsn)
			} else {
				w, err = requestlog.NewSQLiteWriter(dsn)
			}
			if err != nil {
				return err
			}
			defer w.Close()
			n, err := w.Count(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Entries: %d\n", n)
			return nil
		},
	}
	countCmd.Flags().StringVar(&driver, "driver", "sqlite", "audit log driver (sqlite or postgres)")
	countCmd.Flags().StringVar(&dsn, "dsn", "", "database path or connection string")
	cmd.AddCommand(countCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("linguagw-cli %s\n", version.String())
		},
	}
}
