package main

import (
	"errors"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/qiniu/tfplan-comment/internal/actions"
	"github.com/qiniu/tfplan-comment/internal/config"
	"github.com/qiniu/tfplan-comment/internal/runner"
	"github.com/qiniu/tfplan-comment/internal/trace"
)

type options struct {
	configPath string
	planFile   string
	envFiles   []string
	debug      bool
	dryRun     bool

	// newClients replaces the GitHub API in tests.
	newClients runner.ClientFactory
}

func newRootCmd() *cobra.Command {
	return newCommand(&options{})
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tfplan-comment",
		Short: "Post Terraform plan output as a pull request comment",
		Long: `Summarizes the output of "terraform plan" and creates or updates a single
pull request comment per working directory and workspace.

Inputs are read from the environment (PLAN, PLAN_EXIT_CODE, WORKING_DIR,
TF_WORKSPACE, SUMMARY_THEME, GITHUB_TOKEN, ...) and an optional YAML config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				log.SetOutputLevel(log.Ldebug)
			}
			return config.LoadDotEnv(opts.envFiles...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun {
				return opts.render(cmd)
			}
			return opts.post(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "path to the YAML config file")
	flags.StringVar(&opts.planFile, "plan-file", "", "read the plan output from this file instead of $PLAN")
	flags.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the comment instead of posting it")

	cmd.AddCommand(newRenderCmd(opts))
	return cmd
}

func newRenderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the assembled comment without contacting GitHub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.render(cmd)
		},
	}
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.planFile != "" {
		cfg.Plan.File = o.planFile
	}
	return cfg, nil
}

func (o *options) post(cmd *cobra.Command) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return runner.PostFailed(err)
	}
	run, err := actions.DetectContext(nil)
	if err != nil {
		return runner.PostFailed(err)
	}

	ctx := trace.NewContext(cmd.Context(), trace.NewTraceID(run.RunID))
	xl := trace.FromContext(ctx)
	xl.Infof("Run context: %s", run)

	r := runner.New(cfg, run, actions.NewCommands(cmd.OutOrStdout(), nil), o.newClients)
	outcome, err := r.Post(ctx)
	if err != nil {
		return err
	}

	verb := "Updated"
	if outcome.Upsert.Created {
		verb = "Created"
	}
	xl.Infof("%s plan comment on #%d: %s", verb, outcome.Number, outcome.Upsert.URL)
	return nil
}

func (o *options) render(cmd *cobra.Command) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	run, err := actions.DetectContext(nil)
	if errors.Is(err, actions.ErrMissingRepository) {
		// Outside a workflow run; render with placeholders.
		run = &actions.Context{
			Actor:     "local",
			EventName: "local",
			Owner:     "local",
			Repo:      "local",
			ServerURL: actions.DefaultServerURL,
		}
	} else if err != nil {
		return err
	}

	// Annotations go to stderr so stdout holds only the comment.
	ctx := trace.NewContext(cmd.Context(), trace.NewTraceID(run.RunID))
	cmds := actions.NewCommands(cmd.ErrOrStderr(), nil)
	return runner.New(cfg, run, cmds, nil).WriteRendered(ctx, cmd.OutOrStdout())
}
