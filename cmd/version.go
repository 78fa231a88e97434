package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X github.com/zjrosen/urlpad/cmd.version=v1.2.3".
var version = "dev"

var checkFlag bool

const githubReleasesAPI = "https://api.github.com/repos/zjrosen/urlpad/releases/latest"

// releasesURL is the endpoint queried by --check.
// It can be overridden in tests.
var releasesURL = githubReleasesAPI

// releaseClient is the HTTP client used to fetch release info.
// It can be overridden in tests.
var releaseClient = resty.New().SetTimeout(10 * time.Second)

// getVersion returns the current version of urlpad.
// It can be overridden in tests.
var getVersion = func() string {
	return version
}

// githubRelease represents the GitHub API response for a release.
type githubRelease struct {
	TagName string `json:"tag_name"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the urlpad version",
	Long: `Print the urlpad version.

Use --check to ask GitHub whether a newer release exists.

Examples:
  urlpad version
  urlpad version --check`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&checkFlag, "check", false, "check GitHub for a newer release")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	current := getVersion()
	_, _ = fmt.Fprintf(out, "urlpad %s\n", current)

	if !checkFlag {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	latest, err := fetchLatestRelease(ctx)
	if err != nil {
		return err
	}

	if isAlreadyLatest(current, latest) {
		_, _ = fmt.Fprintf(out, "Already on the latest version (%s)\n", latest)
	} else {
		_, _ = fmt.Fprintf(out, "A newer version is available: %s\n", latest)
	}
	return nil
}

// fetchLatestRelease fetches the latest release tag from GitHub.
func fetchLatestRelease(ctx context.Context) (string, error) {
	var release githubRelease
	resp, err := releaseClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.github+json").
		SetResult(&release).
		Get(releasesURL)
	if err != nil {
		return "", fmt.Errorf("fetching latest release: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode())
	}
	if release.TagName == "" {
		return "", fmt.Errorf("GitHub API returned no tag")
	}

	return release.TagName, nil
}

// isAlreadyLatest compares current and latest versions.
// Returns true if current matches latest (with or without 'v' prefix).
// Handles dev versions like "v0.7.2-6-gaa951141-dirty" by extracting base version.
func isAlreadyLatest(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")

	if idx := strings.Index(current, "-"); idx != -1 {
		current = current[:idx]
	}
	if idx := strings.Index(latest, "-"); idx != -1 {
		latest = latest[:idx]
	}

	return current == latest
}
