// Package cli implements the cvpipe command line.
package cli

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/askiada/go-cvpipe/internal/config"
	"github.com/askiada/go-cvpipe/internal/logging"
	"github.com/askiada/go-cvpipe/pkg/operators"
	"github.com/askiada/go-cvpipe/pkg/pipeline"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

// Root carries the state shared by every command.
type Root struct {
	cfg        config.Config
	logger     *logrus.Logger
	reg        *registry.Registry
	configPath string
}

// NewRootCmd creates the cvpipe command tree.
func NewRootCmd() (*cobra.Command, error) {
	reg := registry.New()

	err := operators.Register(reg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load operators")
	}

	root := &Root{reg: reg}

	rootCmd := &cobra.Command{
		Use:           "cvpipe",
		Short:         "cvpipe runs image operator pipelines",
		Long:          `cvpipe builds ordered pipelines of image operators from YAML files and runs them over images.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return root.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&root.configPath, "config", "", "path to a TOML settings file")

	rootCmd.AddCommand(newOperatorsCmd(root))
	rootCmd.AddCommand(newRunCmd(root))
	rootCmd.AddCommand(newBatchCmd(root))
	rootCmd.AddCommand(newValidateCmd(root))
	rootCmd.AddCommand(newGraphCmd(root))
	rootCmd.AddCommand(newInitCmd(root))

	return rootCmd, nil
}

func (r *Root) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	r.cfg = cfg
	r.logger = logger

	logger.WithFields(logrus.Fields{
		"operators": r.reg.Len(),
		"workers":   cfg.Workers,
	}).Debug("cvpipe ready")

	return nil
}

// pipelineOptions returns the options of every pipeline built by a command.
func (r *Root) pipelineOptions() []pipeline.PipelineOption {
	opts := []pipeline.PipelineOption{
		pipeline.WithListener(logging.NewListener(r.logger)),
	}

	if r.cfg.KeepIntermediates {
		opts = append(opts, pipeline.WithIntermediates())
	}

	if r.cfg.Measure {
		opts = append(opts, pipeline.WithDefaultMeasure())
	}

	return opts
}
