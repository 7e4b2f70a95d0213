package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/apidriver/packages/core/config"
	"github.com/abdul-hamid-achik/apidriver/packages/fixtures"
	"github.com/abdul-hamid-achik/apidriver/packages/output"
)

var errNoFixtureStore = errors.New("no fixture store configured (set fixture_store and fixture_path)")

func newFixturesCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage persisted fixture collections",
		Long: `Fixtures are named collections of keyed values kept in the configured
store (sqlite or bbolt) so later runs can look them up.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <collection> <key> <value>",
		Short:   "Store a value; JSON values are kept structured",
		Example: `  apidriver fixtures set accounts admin '{"id": 7}'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFixtures(cmd, g, true, func(r *fixtures.Registry, _ output.Formatter) error {
				r.Get(args[0]).Set(args[1], parseFixtureValue(args[2]))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <collection> <key...>",
		Short: "Print stored values in the order the keys are given",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFixtures(cmd, g, false, func(r *fixtures.Registry, f output.Formatter) error {
				keys := make([]any, 0, len(args)-1)
				for _, k := range args[1:] {
					keys = append(keys, k)
				}
				values, err := r.Get(args[0]).GetMany(keys...)
				if err != nil {
					return err
				}
				if len(values) == 1 {
					f.FormatValue(values[0])
				} else {
					f.FormatValue(values)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [collection]",
		Short: "List collection names, or the keys of one collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFixtures(cmd, g, false, func(r *fixtures.Registry, f output.Formatter) error {
				if len(args) == 0 {
					f.FormatValue(r.Names())
					return nil
				}
				f.FormatValue(r.Get(args[0]).Keys())
				return nil
			})
		},
	})

	return cmd
}

// withFixtures loads the persisted registry, runs fn against it and saves
// the result back when save is set.
func withFixtures(cmd *cobra.Command, g *globalOptions, save bool, fn func(*fixtures.Registry, output.Formatter) error) error {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openFixtureStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	formatter, err := g.formatter(cmd, cfg)
	if err != nil {
		return err
	}

	registry := fixtures.NewRegistry()
	if err := store.Load(registry); err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	if err := fn(registry, formatter); err != nil {
		formatter.FormatError(err)
		return &exitError{code: ExitFailure, err: err, reported: true}
	}

	if save {
		if err := store.Save(registry); err != nil {
			return fmt.Errorf("save fixtures: %w", err)
		}
	}
	return nil
}

func openFixtureStore(cfg *config.Config) (fixtures.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.FixtureStore)) {
	case "", "none", "disabled":
		return nil, configError(errNoFixtureStore)
	}
	store, err := fixtures.OpenStore(cfg.FixtureStore, cfg.FixturePath)
	if err != nil {
		return nil, configError(err)
	}
	return store, nil
}

// parseFixtureValue keeps JSON input structured and anything else as text.
func parseFixtureValue(raw string) any {
	var v any
	if json.Unmarshal([]byte(raw), &v) == nil {
		return v
	}
	return raw
}
