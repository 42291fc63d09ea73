package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qiniu/x/xlog"

	"github.com/qiniu/tfplan-comment/internal/actions"
	"github.com/qiniu/tfplan-comment/internal/comment"
	"github.com/qiniu/tfplan-comment/internal/config"
	"github.com/qiniu/tfplan-comment/internal/events"
	"github.com/qiniu/tfplan-comment/internal/github"
	"github.com/qiniu/tfplan-comment/internal/interaction"
	"github.com/qiniu/tfplan-comment/internal/plan"
)

// ChangesPresentMessage is logged when the plan has pending changes.
const ChangesPresentMessage = "I love it when a plan comes together."

// ErrNoPullRequestNumber is returned when no pull request can be associated with the run.
var ErrNoPullRequestNumber = errors.New("no pull request number available")

// PullRequestFinder resolves the open pull request that contains a commit.
type PullRequestFinder interface {
	FindPullRequestForCommit(ctx context.Context, owner, repo, sha string) (int, error)
}

// Clients are the GitHub collaborators used to publish a comment.
type Clients struct {
	Comments     interaction.GitHubCommentClient
	PullRequests PullRequestFinder
	// Monitor may be nil.
	Monitor *github.RateLimitMonitor
}

// ClientFactory builds clients authorized for owner/repo.
type ClientFactory func(ctx context.Context, cfg *config.Config, owner, repo string) (*Clients, error)

// NewGitHubClients is the ClientFactory backed by the real GitHub API.
func NewGitHubClients(ctx context.Context, cfg *config.Config, owner, repo string) (*Clients, error) {
	manager, err := github.NewClientManager(cfg)
	if err != nil {
		return nil, err
	}
	rest, gql, err := manager.Clients(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Comments:     rest,
		PullRequests: gql,
		Monitor:      manager.Monitor(),
	}, nil
}

// Outcome describes a published comment.
type Outcome struct {
	Comment comment.Result
	Number  int
	Upsert  *interaction.UpsertResult
}

// Runner turns one workflow step's plan output into a pull request comment.
type Runner struct {
	config     *config.Config
	run        *actions.Context
	commands   *actions.Commands
	parser     *events.EventParser
	newClients ClientFactory
}

// New creates a runner. commands may be nil to skip step outputs; a nil factory
// uses NewGitHubClients.
func New(cfg *config.Config, run *actions.Context, commands *actions.Commands, factory ClientFactory) *Runner {
	if factory == nil {
		factory = NewGitHubClients
	}
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = run.APIURL
	}
	if cfg.GitHub.GraphQLURL == "" {
		cfg.GitHub.GraphQLURL = run.GraphQLURL
	}
	return &Runner{
		config:     cfg,
		run:        run,
		commands:   commands,
		parser:     events.NewEventParser(),
		newClients: factory,
	}
}

// Render assembles the comment without contacting GitHub.
func (r *Runner) Render(ctx context.Context) (comment.Result, error) {
	xl := xlog.NewWith(ctx)

	text, err := r.config.ReadPlan()
	if err != nil {
		return comment.Result{}, err
	}

	code := plan.ParseExitCode(r.config.Plan.ExitCode)
	if code == plan.ExitCodeChangesPresent {
		r.infof(ctx, ChangesPresentMessage)
	}
	if code == plan.ExitCodeUnknown {
		r.warnf(ctx, "Unrecognized plan exit code %q, summarizing from the plan text", r.config.Plan.ExitCode)
	}

	if _, ok := plan.LookupTheme(r.config.Comment.Theme); !ok {
		r.warnf(ctx, "Unknown summary theme %q, using %q (valid: %s)",
			r.config.Comment.Theme, plan.ThemeDefault, strings.Join(plan.Themes(), ", "))
	}

	result := comment.Assemble(comment.Input{
		Plan:       text,
		ExitCode:   code,
		WorkingDir: r.config.Plan.WorkingDir,
		Workspace:  r.config.Plan.Workspace,
		Theme:      r.config.Comment.Theme,
		Actor:      r.run.Actor,
		EventName:  r.run.EventName,
		RunURL:     r.run.RunURL(),
	})

	if result.Stage != comment.StageFull {
		r.warnf(ctx, "Plan comment is %d characters, posting the %s version", result.FullLength, result.Stage)
	}
	xl.Debugf("Assembled comment: stage=%s length=%d marker=%s", result.Stage, comment.Length(result.Body), result.Marker)
	return result, nil
}

// infof logs to the run logger and the workflow log.
func (r *Runner) infof(ctx context.Context, format string, args ...interface{}) {
	xlog.NewWith(ctx).Infof(format, args...)
	if r.commands != nil {
		r.commands.Infof(format, args...)
	}
}

// warnf logs a warning and raises it as a workflow annotation.
func (r *Runner) warnf(ctx context.Context, format string, args ...interface{}) {
	xlog.NewWith(ctx).Warnf(format, args...)
	if r.commands != nil {
		r.commands.Warningf(format, args...)
	}
}

// WriteRendered renders the comment to w.
func (r *Runner) WriteRendered(ctx context.Context, w io.Writer) error {
	result, err := r.Render(ctx)
	if err != nil {
		return fmt.Errorf("Failed to render PR comment: %w", err)
	}
	_, err = io.WriteString(w, result.Body+"\n")
	return err
}

// Post assembles the comment and creates or updates it on the pull request.
// Every failure is reported as "Failed to post PR comment: ...".
func (r *Runner) Post(ctx context.Context) (*Outcome, error) {
	outcome, err := r.post(ctx)
	if err != nil {
		return nil, PostFailed(err)
	}
	return outcome, nil
}

// PostFailed wraps err in the message reported for every failed post.
func PostFailed(err error) error {
	return fmt.Errorf("Failed to post PR comment: %w", err)
}

func (r *Runner) post(ctx context.Context) (*Outcome, error) {
	xl := xlog.NewWith(ctx)

	result, err := r.Render(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := r.newClients(ctx, r.config, r.run.Owner, r.run.Repo)
	if err != nil {
		return nil, err
	}
	if clients.Monitor != nil {
		defer func() {
			clients.Monitor.LogStatistics()
			if clients.Monitor.IsRateLimitCritical() {
				r.warnf(ctx, "GitHub API rate limit is nearly exhausted")
			}
		}()
	}

	number, err := r.resolveNumber(ctx, clients.PullRequests)
	if err != nil {
		return nil, err
	}
	xl.Infof("Publishing plan comment to %s#%d", r.run.FullName(), number)

	manager := interaction.NewPlanCommentManager(clients.Comments, interaction.Target{
		Owner:  r.run.Owner,
		Repo:   r.run.Repo,
		Number: number,
	}, r.config.Comment.Author)

	upsert, err := manager.Upsert(ctx, result.Body, result.Marker)
	if err != nil {
		return nil, err
	}

	if r.commands != nil {
		r.commands.SetOutputs([]actions.Output{
			{Name: actions.OutputCommentID, Value: strconv.FormatInt(upsert.CommentID, 10)},
			{Name: actions.OutputCommentURL, Value: upsert.URL},
			{Name: actions.OutputStage, Value: string(result.Stage)},
			{Name: actions.OutputSummary, Value: result.Summary},
		})
	}

	return &Outcome{Comment: result, Number: number, Upsert: upsert}, nil
}

// resolveNumber picks the pull request to comment on: the PR_NUMBER override,
// then the event payload, then the open pull request containing the head commit.
func (r *Runner) resolveNumber(ctx context.Context, finder PullRequestFinder) (int, error) {
	xl := xlog.NewWith(ctx)

	if r.run.PRNumber > 0 {
		return r.run.PRNumber, nil
	}

	sha := r.run.SHA
	if events.IsSupportedEventType(r.run.EventName) {
		event, err := r.parser.ParseEventFile(ctx, r.run.EventName, r.run.EventPath)
		switch {
		case err != nil:
			xl.Warnf("Could not read event payload: %v", err)
		case event.HasNumber():
			if !event.IsPR {
				r.warnf(ctx, "%s event targets issue #%d, which is not a pull request", event.Type, event.Number)
			}
			return event.Number, nil
		case event.HeadSHA != "":
			sha = event.HeadSHA
		}
	}

	if sha == "" || finder == nil {
		return 0, fmt.Errorf("%w for event %q", ErrNoPullRequestNumber, r.run.EventName)
	}

	number, err := finder.FindPullRequestForCommit(ctx, r.run.Owner, r.run.Repo, sha)
	if err != nil {
		if errors.Is(err, github.ErrNoPullRequest) {
			return 0, fmt.Errorf("%w: %v", ErrNoPullRequestNumber, err)
		}
		return 0, err
	}
	return number, nil
}
