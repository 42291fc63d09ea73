package actions

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

const (
	DefaultServerURL  = "https://github.com"
	DefaultAPIURL     = "https://api.github.com"
	DefaultGraphQLURL = "https://api.github.com/graphql"
)

var (
	ErrMissingRepository = errors.New("GITHUB_REPOSITORY is not set")
	ErrInvalidRepository = errors.New("GITHUB_REPOSITORY must be owner/repo")
	ErrInvalidPRNumber   = errors.New("PR_NUMBER must be a positive integer")
)

// Context is the workflow run that invoked us.
type Context struct {
	Actor      string
	EventName  string
	EventPath  string
	Owner      string
	Repo       string
	RunID      string
	ServerURL  string
	APIURL     string
	GraphQLURL string
	SHA        string
	// PRNumber is the explicit PR_NUMBER override, zero when unset.
	PRNumber int
}

// DetectContext reads the run context from the environment. getenv may be nil.
func DetectContext(getenv func(string) string) (*Context, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	gh, err := githubactions.New(githubactions.WithGetenv(getenv)).Context()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow context: %w", err)
	}

	if gh.Repository == "" {
		return nil, ErrMissingRepository
	}
	owner, repo := gh.Repo()
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, gh.Repository)
	}

	ctx := &Context{
		Actor:      gh.Actor,
		EventName:  gh.EventName,
		EventPath:  gh.EventPath,
		Owner:      owner,
		Repo:       repo,
		ServerURL:  orDefault(gh.ServerURL, DefaultServerURL),
		APIURL:     orDefault(gh.APIURL, DefaultAPIURL),
		GraphQLURL: orDefault(gh.GraphqlURL, DefaultGraphQLURL),
		SHA:        gh.SHA,
	}
	if gh.RunID != 0 {
		ctx.RunID = strconv.FormatInt(gh.RunID, 10)
	}

	if raw := strings.TrimSpace(getenv("PR_NUMBER")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPRNumber, raw)
		}
		ctx.PRNumber = n
	}

	return ctx, nil
}

// RunURL links to the workflow run page.
func (c *Context) RunURL() string {
	return fmt.Sprintf("%s/%s/%s/actions/runs/%s", strings.TrimSuffix(c.ServerURL, "/"), c.Owner, c.Repo, c.RunID)
}

// FullName returns owner/repo.
func (c *Context) FullName() string {
	return c.Owner + "/" + c.Repo
}

func (c *Context) String() string {
	return fmt.Sprintf("repo=%s event=%s actor=%s run=%s pr=%d", c.FullName(), c.EventName, c.Actor, c.RunID, c.PRNumber)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
