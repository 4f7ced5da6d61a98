package name

import (
	"regexp"
	"strings"

	"github.com/huandu/xstrings"
)

var (
	digits   = regexp.MustCompile(`-([0-9]+)`)
	replacer = strings.NewReplacer(".", "-", "_", "-")
)

// Normalize turns a test name into its kebab-case form, so that
// fileDisplayDownloads, file-display-downloads and file_display_downloads
// all compare equal.
func Normalize(name string) string {
	n := strings.TrimSpace(name)
	n = replacer.Replace(n)
	n = strings.Trim(digits.ReplaceAllString(xstrings.ToKebabCase(n), "$1-"), "-")
	return strings.Replace(n, "--", "-", -1)
}
