// Command basis manages stored classes (list, get, store, promote, delete, tag,
// versions) and constructs configurations against them.
package main

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/klejdi94/basis/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	settings settings
	logger   *zap.Logger
	reg      registry.Registry
	closeReg func() error
	in       io.Reader
	out      io.Writer
}

func main() {
	// A missing .env file is fine; flags and the process environment still apply.
	_ = godotenv.Load()

	a := &app{in: os.Stdin, out: os.Stdout}
	if err := a.execute(newRootCmd(a)); err != nil {
		os.Exit(1)
	}
}

// execute runs root and then releases the registry and flushes the logger.
// Cleanup lives here because cobra skips post-run hooks when RunE fails.
func (a *app) execute(root *cobra.Command) error {
	defer a.cleanup()
	return root.Execute()
}

func (a *app) cleanup() {
	if a.closeReg != nil {
		if err := a.closeReg(); err != nil && a.logger != nil {
			a.logger.Warn("closing registry", zap.Error(err))
		}
		a.closeReg = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "basis",
		Short:         "Manage versioned classes and construct configurations against them",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger == nil {
				cfg := zap.NewProductionConfig()
				if a.settings.Debug {
					cfg = zap.NewDevelopmentConfig()
					cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				logger, err := cfg.Build()
				if err != nil {
					return err
				}
				a.logger = logger
			}
			if a.reg == nil {
				reg, closer, err := a.settings.open(cmd.Context())
				if err != nil {
					return err
				}
				a.reg, a.closeReg = reg, closer
				a.logger.Debug("registry opened", zap.String("backend", a.settings.Backend))
			}
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	a.settings.bindFlags(root)

	root.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.storeCmd(),
		a.promoteCmd(),
		a.deleteCmd(),
		a.tagCmd(),
		a.versionsCmd(),
		a.constructCmd(),
	)
	return root
}
