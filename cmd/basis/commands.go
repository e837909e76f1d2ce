package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/klejdi94/basis/configfile"
	"github.com/klejdi94/basis/core"
	"github.com/klejdi94/basis/registry"
	"github.com/klejdi94/basis/template"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) listCmd() *cobra.Command {
	var filter registry.Filter
	var stage string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stage != "" {
				s, err := registry.ParseStage(stage)
				if err != nil {
					return err
				}
				filter.Stage = s
			}
			classes, err := a.reg.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, c := range classes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, c.Version, c.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "only classes in this stage")
	cmd.Flags().StringSliceVar(&filter.Tags, "tag", nil, "only classes carrying all these tags")
	cmd.Flags().IntVar(&filter.Limit, "limit", 500, "maximum number of classes")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "number of classes to skip")
	return cmd
}

func (a *app) lookup(cmd *cobra.Command, id, version string) (*core.Class, error) {
	if version == "" {
		return a.reg.GetProduction(cmd.Context(), id)
	}
	return a.reg.Get(cmd.Context(), id, version)
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> [version]",
		Short: "Print a class as JSON (default: production version)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 2 {
				version = args[1]
			}
			c, err := a.lookup(cmd, args[0], version)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
}

func (a *app) storeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store",
		Short: "Store a class read from stdin (JSON)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c core.Class
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&c); err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if c.ID == "" || c.Version == "" {
				return errors.New("class must have id and version")
			}
			if err := a.reg.Store(cmd.Context(), &c); err != nil {
				return err
			}
			a.logger.Info("class stored", zap.String("id", c.ID), zap.String("version", c.Version))
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s@%s\n", c.ID, c.Version)
			return nil
		},
	}
}

func (a *app) promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id> <version> [stage]",
		Short: "Move a version to a stage (dev|staging|production, default production)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage := registry.StageProduction
			if len(args) == 3 {
				s, err := registry.ParseStage(args[2])
				if err != nil {
					return err
				}
				stage = s
			}
			if err := a.reg.Promote(cmd.Context(), args[0], args[1], stage); err != nil {
				return err
			}
			a.logger.Info("class promoted", zap.String("id", args[0]), zap.String("version", args[1]), zap.String("stage", string(stage)))
			fmt.Fprintf(cmd.OutOrStdout(), "promoted %s@%s to %s\n", args[0], args[1], stage)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> <version>",
		Short: "Delete a version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.reg.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			a.logger.Info("class deleted", zap.String("id", args[0]), zap.String("version", args[1]))
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s@%s\n", args[0], args[1])
			return nil
		},
	}
}

func (a *app) tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <version> <tag...>",
		Short: "Add tags to a version",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := args[2:]
			if err := a.reg.Tag(cmd.Context(), args[0], args[1], tags); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %s@%s with %s\n", args[0], args[1], strings.Join(tags, ","))
			return nil
		},
	}
}

func (a *app) versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <id>",
		Short: "List versions of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := a.reg.ListVersions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, vi := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", vi.Version, vi.Stage, strings.Join(vi.Tags, ","))
			}
			return nil
		},
	}
}

// splitConstructArgs separates an optional version from trailing key=value pairs.
func splitConstructArgs(args []string) (id, version string, pairs []string) {
	id, rest := args[0], args[1:]
	if len(rest) > 0 && !strings.Contains(rest[0], "=") {
		version, rest = rest[0], rest[1:]
	}
	return id, version, rest
}

func (a *app) constructCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "construct <id> [version] [key=value...]",
		Short: "Validate a configuration against a stored class and print it with defaults applied",
		Long: `Construct resolves a configuration against a stored class: every field is
checked in declaration order, defaults are filled in and the result is printed
as JSON. The configuration comes from --file (JSON, YAML or HCL) and/or
key=value pairs; pairs override keys read from the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, version, pairs := splitConstructArgs(args)
			c, err := a.lookup(cmd, id, version)
			if err != nil {
				return err
			}
			cfg := core.Config{}
			if file != "" {
				if cfg, err = configfile.Load(file); err != nil {
					return err
				}
			}
			overrides, err := configfile.ParsePairs(pairs)
			if err != nil {
				return err
			}
			for k, v := range overrides {
				cfg[k] = v
			}
			resolved, err := template.NewEngine().Resolve(c, cfg)
			if err != nil {
				a.logger.Debug("construct failed", zap.String("id", c.ID), zap.String("version", c.Version), zap.Error(err))
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolved)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "configuration file (.json, .yaml, .yml, .hcl)")
	return cmd
}
