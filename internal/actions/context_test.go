package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestDetectContext(t *testing.T) {
	ctx, err := DetectContext(envFunc(map[string]string{
		"GITHUB_ACTOR":      "octocat",
		"GITHUB_EVENT_NAME": "pull_request",
		"GITHUB_REPOSITORY": "acme/infra",
		"GITHUB_RUN_ID":     "123456",
		"GITHUB_SHA":        "abc123",
		"PR_NUMBER":         " 42 ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "octocat", ctx.Actor)
	assert.Equal(t, "pull_request", ctx.EventName)
	assert.Equal(t, "acme", ctx.Owner)
	assert.Equal(t, "infra", ctx.Repo)
	assert.Equal(t, "acme/infra", ctx.FullName())
	assert.Equal(t, "123456", ctx.RunID)
	assert.Equal(t, "abc123", ctx.SHA)
	assert.Equal(t, 42, ctx.PRNumber)
	assert.Equal(t, DefaultServerURL, ctx.ServerURL)
	assert.Equal(t, DefaultAPIURL, ctx.APIURL)
	assert.Equal(t, DefaultGraphQLURL, ctx.GraphQLURL)
	assert.Equal(t, "https://github.com/acme/infra/actions/runs/123456", ctx.RunURL())
}

func TestDetectContext_Enterprise(t *testing.T) {
	ctx, err := DetectContext(envFunc(map[string]string{
		"GITHUB_REPOSITORY":  "platform/network",
		"GITHUB_RUN_ID":      "7",
		"GITHUB_SERVER_URL":  "https://ghe.example.com/",
		"GITHUB_API_URL":     "https://ghe.example.com/api/v3",
		"GITHUB_GRAPHQL_URL": "https://ghe.example.com/api/graphql",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://ghe.example.com/api/v3", ctx.APIURL)
	assert.Equal(t, "https://ghe.example.com/api/graphql", ctx.GraphQLURL)
	assert.Equal(t, "https://ghe.example.com/platform/network/actions/runs/7", ctx.RunURL())
	assert.Zero(t, ctx.PRNumber)
}

func TestDetectContext_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "missing repository",
			env:     map[string]string{},
			wantErr: ErrMissingRepository,
		},
		{
			name:    "malformed repository",
			env:     map[string]string{"GITHUB_REPOSITORY": "infra"},
			wantErr: ErrInvalidRepository,
		},
		{
			name:    "non-numeric PR_NUMBER",
			env:     map[string]string{"GITHUB_REPOSITORY": "acme/infra", "PR_NUMBER": "abc"},
			wantErr: ErrInvalidPRNumber,
		},
		{
			name:    "zero PR_NUMBER",
			env:     map[string]string{"GITHUB_REPOSITORY": "acme/infra", "PR_NUMBER": "0"},
			wantErr: ErrInvalidPRNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectContext(envFunc(tt.env))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
