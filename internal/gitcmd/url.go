package gitcmd

import (
	"regexp"
	"strings"
)

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://.+/.+`),
	regexp.MustCompile(`^git@.+:.+/.+`),
	regexp.MustCompile(`^git://.+/.+`),
	regexp.MustCompile(`^ssh://.+/.+`),
}

// IsValidURL reports whether url looks like a cloneable git remote.
func IsValidURL(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" || strings.ContainsAny(url, " \t\n") {
		return false
	}
	for _, re := range urlPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// IsSSH reports whether url uses an SSH transport, which may need an
// interactive passphrase or host-key prompt.
func IsSSH(url string) bool {
	url = strings.TrimSpace(url)
	return strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://")
}

// RepoName extracts the directory name git clone would create for url.
func RepoName(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return url
}
