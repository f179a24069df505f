package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/defensetimer/go/internal/dbconfig"
	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"gopkg.in/yaml.v3"
)

const defaultPresetsPath = "go/internal/assets/presets.yaml"

type namedPreset struct {
	Name   string
	Config models.SessionConfig
}

// loadPresets decodes a YAML document of preset name to session block.
// Every block uses the session file format and must validate.
func loadPresets(data []byte) ([]namedPreset, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse presets yaml: %w", err)
	}

	presets := make([]namedPreset, 0, len(doc))
	for name, node := range doc {
		raw, err := yaml.Marshal(&node)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		cfg, err := config.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets = append(presets, namedPreset{Name: name, Config: cfg})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}

func main() {
	path := defaultPresetsPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the YAML presets
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read presets: %v\n", err)
		os.Exit(1)
	}
	presets, err := loadPresets(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total   = len(presets)
		written int
		errs    int
	)

	for _, p := range presets {
		raw, err := json.Marshal(p.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error encoding preset %s: %v\n", p.Name, err)
			errs++
			continue
		}
		_, err = pool.Exec(ctx, `
            INSERT INTO session_presets (name, config, updated_at)
            VALUES ($1, $2, now())
            ON CONFLICT (name) DO UPDATE
            SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at
        `, p.Name, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error writing preset %s: %v\n", p.Name, err)
			errs++
			continue
		}
		written++
	}

	// 4) Print summary
	fmt.Printf("Presets seed complete: %d total, %d written, %d errors\n", total, written, errs)
}
