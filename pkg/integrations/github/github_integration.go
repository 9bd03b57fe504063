// Package github analyzes how a proposed feature touches an existing
// repository: related files, third-party dependencies and data models.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/rs/zerolog/log"

	"github.com/prodpilot/prodpilot/internal/domain"
)

const (
	maxSearchTerms  = 3
	maxRelatedFiles = 10
	maxDependencies = 15
	maxAffectedData = 15
)

type AnalyzeFeatureParams struct {
	Repo               string   `json:"repo"`
	FeatureDescription string   `json:"featureDescription"`
	SearchTerms        []string `json:"searchTerms"`
}

type RelatedFile struct {
	Path      string `json:"path"`
	Relevance string `json:"relevance"`
	Snippet   string `json:"snippet,omitempty"`
}

type FeatureAnalysis struct {
	Repo               string        `json:"repo"`
	FeatureDescription string        `json:"featureDescription"`
	RelatedFiles       []RelatedFile `json:"relatedFiles"`
	Dependencies       []string      `json:"dependencies"`
	AffectedData       []string      `json:"affectedData"`
	SuggestedApproach  string        `json:"suggestedApproach"`
}

type GitHubIntegration struct {
	cred       domain.GitHubCredential
	cfg        domain.GitHubConfig
	httpClient *http.Client
}

type GitHubIntegrationDependencies struct {
	Credential domain.GitHubCredential
	Config     domain.GitHubConfig
	HTTPClient *http.Client
}

func NewGitHubIntegration(deps GitHubIntegrationDependencies) *GitHubIntegration {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GitHubIntegration{
		cred:       deps.Credential,
		cfg:        deps.Config,
		httpClient: httpClient,
	}
}

// AnalyzeFeature searches the repository for code related to a feature
// description and derives dependencies and affected data models from the
// matching files. Individual lookup failures degrade the analysis instead of
// failing it.
func (i *GitHubIntegration) AnalyzeFeature(ctx context.Context, p AnalyzeFeatureParams) (*FeatureAnalysis, error) {
	client, err := i.client()
	if err != nil {
		return nil, err
	}

	owner, name, found := strings.Cut(p.Repo, "/")
	if !found || owner == "" || name == "" {
		return nil, fmt.Errorf("repo must be owner/name, got %q", p.Repo)
	}

	searchTerms := p.SearchTerms
	if len(searchTerms) == 0 {
		searchTerms = extractKeywords(p.FeatureDescription)
	}

	var relatedFiles []RelatedFile
	seenPaths := map[string]bool{}
	dependencies := newOrderedSet(maxDependencies)
	affectedData := newOrderedSet(maxAffectedData)

	terms := searchTerms
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}

	for _, term := range terms {
		query := fmt.Sprintf("%s repo:%s", term, p.Repo)
		result, _, err := client.Search.Code(ctx, query, &gogithub.SearchOptions{
			ListOptions: gogithub.ListOptions{PerPage: 5},
		})
		if err != nil {
			log.Warn().Err(err).Str("term", term).Msg("GitHub code search failed, skipping term")
			continue
		}

		for _, item := range result.CodeResults {
			path := item.GetPath()
			if path == "" || seenPaths[path] {
				continue
			}
			seenPaths[path] = true

			content := i.fileContent(ctx, client, owner, name, path)
			if content != "" {
				collectImports(content, dependencies)
				collectDataModels(content, affectedData)
			}

			relatedFiles = append(relatedFiles, RelatedFile{
				Path:      path,
				Relevance: fmt.Sprintf("Matches %q", term),
				Snippet:   matchSnippet(content, term),
			})
		}
	}

	if pkg := i.fileContent(ctx, client, owner, name, "package.json"); pkg != "" {
		collectPackageDependencies(pkg, searchTerms, dependencies)
	}

	if len(relatedFiles) > maxRelatedFiles {
		relatedFiles = relatedFiles[:maxRelatedFiles]
	}
	if relatedFiles == nil {
		relatedFiles = []RelatedFile{}
	}

	return &FeatureAnalysis{
		Repo:               p.Repo,
		FeatureDescription: p.FeatureDescription,
		RelatedFiles:       relatedFiles,
		Dependencies:       dependencies.values(),
		AffectedData:       affectedData.values(),
		SuggestedApproach:  suggestedApproach(relatedFiles),
	}, nil
}

func (i *GitHubIntegration) fileContent(ctx context.Context, client *gogithub.Client, owner, name, path string) string {
	file, _, _, err := client.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil || file == nil {
		return ""
	}
	content, err := file.GetContent()
	if err != nil {
		return ""
	}
	return content
}

func (i *GitHubIntegration) client() (*gogithub.Client, error) {
	token, err := i.accessToken()
	if err != nil {
		return nil, err
	}

	client := gogithub.NewClient(i.httpClient).WithAuthToken(token)
	if i.cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(i.cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github api base url: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}

func (i *GitHubIntegration) accessToken() (string, error) {
	switch c := i.cred.(type) {
	case domain.GitHubOAuthCredential:
		if c.AccessToken == "" {
			return "", domain.ErrNotConnected
		}
		return c.AccessToken, nil
	case domain.GitHubStaticCredential:
		if c.AccessToken == "" {
			return "", domain.ErrNotConnected
		}
		return c.AccessToken, nil
	default:
		return "", domain.ErrNotConnected
	}
}

func suggestedApproach(files []RelatedFile) string {
	if len(files) == 0 {
		return "No directly related code found. This may be a new feature requiring new files."
	}
	keyFiles := files
	if len(keyFiles) > 3 {
		keyFiles = keyFiles[:3]
	}
	paths := make([]string, 0, len(keyFiles))
	for _, f := range keyFiles {
		paths = append(paths, f.Path)
	}
	return fmt.Sprintf("Found %d related files. Key areas: %s.", len(files), strings.Join(paths, ", "))
}

// matchSnippet picks up to three lines containing the term, prefixed with
// their line numbers.
func matchSnippet(content, term string) string {
	if content == "" {
		return ""
	}

	var matches []string
	lowered := strings.ToLower(term)
	for idx, line := range strings.Split(content, "\n") {
		if !strings.Contains(strings.ToLower(line), lowered) {
			continue
		}
		matches = append(matches, fmt.Sprintf("L%d: %s", idx+1, strings.TrimSpace(line)))
		if len(matches) == 3 {
			break
		}
	}
	return strings.Join(matches, "\n")
}

var importPattern = regexp.MustCompile(`(?m)^import\s+.+?from\s+['"]([^'"]+)['"]`)

func collectImports(content string, deps *orderedSet) {
	for _, match := range importPattern.FindAllStringSubmatch(content, -1) {
		module := match[1]
		if !strings.HasPrefix(module, ".") {
			deps.add(module)
		}
	}
}

var dataModelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`interface\s+(\w+)`),
	regexp.MustCompile(`type\s+(\w+)\s*=`),
	regexp.MustCompile(`model\s+(\w+)`),
	regexp.MustCompile(`(?i)schema\s*\.\s*(\w+)`),
	regexp.MustCompile(`table\s*\(\s*['"](\w+)['"]`),
	regexp.MustCompile(`collection\s*\(\s*['"](\w+)['"]`),
}

func collectDataModels(content string, models *orderedSet) {
	for _, pattern := range dataModelPatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			name := match[1]
			if len(name) > 2 && len(name) < 50 {
				models.add(name)
			}
		}
	}
}

func collectPackageDependencies(packageJSON string, terms []string, deps *orderedSet) {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(packageJSON), &pkg); err != nil {
		return
	}

	all := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for dep, version := range pkg.Dependencies {
		all[dep] = version
	}
	for dep, version := range pkg.DevDependencies {
		all[dep] = version
	}

	// deterministic order regardless of map iteration
	names := make([]string, 0, len(all))
	for dep := range all {
		names = append(names, dep)
	}
	sort.Strings(names)

	for _, term := range terms {
		lowered := strings.ToLower(term)
		for _, dep := range names {
			if strings.Contains(strings.ToLower(dep), lowered) {
				deps.add(dep + "@" + all[dep])
			}
		}
	}
}

var keywordStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "i": true, "we": true, "you": true,
	"they": true, "it": true, "this": true, "that": true, "what": true,
	"which": true, "who": true, "when": true, "where": true, "how": true,
	"want": true, "need": true, "add": true, "create": true, "make": true,
	"build": true, "feature": true, "and": true, "or": true, "but": true,
	"for": true, "with": true, "from": true, "to": true, "in": true,
	"on": true, "at": true, "of": true,
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)

// extractKeywords reduces a feature description to at most five search terms.
func extractKeywords(text string) []string {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), "")

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 || keywordStopWords[word] {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}
