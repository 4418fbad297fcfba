package extract

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	githubClientTimeout = 30 * time.Second

	// commitPageSize is the fixed page size for commit history pagination.
	commitPageSize = 100
	// maxCommits bounds how much history a single ingestion pulls.
	maxCommits = 300
)

var repoURLPattern = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?$`)

// ParseRepoURL extracts (owner, repo) from the URL forms users paste:
// full https URLs, URLs with trailing paths, bare "owner/repo", and
// "owner/repo.git". The ".git" suffix is always stripped.
func ParseRepoURL(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", domain.ErrMissingURL
	}

	path := raw
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/", "git@github.com:"} {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	path = strings.Trim(path, "/")

	// Keep only owner/repo from longer paths like owner/repo/tree/main.
	parts := strings.Split(path, "/")
	if len(parts) >= 2 {
		path = parts[0] + "/" + parts[1]
	}

	match := repoURLPattern.FindStringSubmatch(path)
	if match == nil {
		return "", "", domain.ErrInvalidGitHubURL
	}

	return match[1], match[2], nil
}

// RepoFile is one blob entry from the repository tree.
type RepoFile struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

// RepoCommit is one entry from the commit history.
type RepoCommit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// RepoContent is the structural listing produced for a repository: the
// recursive file tree, a bounded slice of commit history, and the README
// when one exists.
type RepoContent struct {
	Owner   string
	Repo    string
	Files   []RepoFile
	Commits []RepoCommit
	Readme  string
}

// FullName returns the owner/repo pair.
func (rc *RepoContent) FullName() string {
	return rc.Owner + "/" + rc.Repo
}

// Summary flattens the listing into plain text for generation and chunking.
func (rc *RepoContent) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s\n\n", rc.FullName())

	if rc.Readme != "" {
		b.WriteString("README:\n")
		b.WriteString(rc.Readme)
		b.WriteString("\n\n")
	}

	if len(rc.Files) > 0 {
		b.WriteString("Files:\n")
		for _, f := range rc.Files {
			b.WriteString(f.Path)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if len(rc.Commits) > 0 {
		b.WriteString("Recent commits:\n")
		for _, c := range rc.Commits {
			first := c.Message
			if idx := strings.IndexByte(first, '\n'); idx >= 0 {
				first = first[:idx]
			}
			fmt.Fprintf(&b, "%s %s (%s)\n", c.SHA[:min(8, len(c.SHA))], first, c.Author)
		}
	}

	return b.String()
}

// GitHubClient fetches repository structure through the GitHub REST API.
type GitHubClient struct {
	gh *gh.Client
}

// NewGitHubClient creates a client; with a token it authenticates through
// oauth2, otherwise it uses the anonymous rate-limited API.
func NewGitHubClient(token string) *GitHubClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = githubClientTimeout

	return &GitHubClient{gh: gh.NewClient(httpClient)}
}

// NewGitHubClientWithGitHub wraps an existing go-github client (for testing).
func NewGitHubClientWithGitHub(client *gh.Client) *GitHubClient {
	return &GitHubClient{gh: client}
}

// FetchRepository pulls the recursive file tree, bounded commit history,
// and README. Tree or commit failures are fatal; a missing README is not.
func (c *GitHubClient) FetchRepository(ctx context.Context, owner, repo string) (*RepoContent, error) {
	content := &RepoContent{Owner: owner, Repo: repo}

	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, "HEAD", true)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to fetch repository tree", err)
	}
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		content.Files = append(content.Files, RepoFile{
			Path: entry.GetPath(),
			Size: entry.GetSize(),
		})
	}

	commits, err := c.fetchCommits(ctx, owner, repo)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "failed to fetch commit history", err)
	}
	content.Commits = commits

	// Best effort: a repo without a README still gets processed.
	if readme, _, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil); err == nil {
		if text, err := readme.GetContent(); err == nil {
			content.Readme = text
		}
	}

	return content, nil
}

func (c *GitHubClient) fetchCommits(ctx context.Context, owner, repo string) ([]RepoCommit, error) {
	var all []RepoCommit

	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: commitPageSize, Page: 1},
	}

	for len(all) < maxCommits {
		page, _, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, err
		}

		for _, rc := range page {
			all = append(all, RepoCommit{
				SHA:     rc.GetSHA(),
				Message: rc.GetCommit().GetMessage(),
				Author:  rc.GetCommit().GetAuthor().GetName(),
				Date:    rc.GetCommit().GetAuthor().GetDate().Time,
			})
			if len(all) >= maxCommits {
				break
			}
		}

		// A short page means history is exhausted.
		if len(page) < commitPageSize {
			break
		}
		opts.Page++
	}

	return all, nil
}
