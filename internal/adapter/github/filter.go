package github

import "regexp"

// ignoredPatterns excludes version-control internals, dependency locks,
// build/coverage output, binary and media files, minified bundles, and
// OS/editor artifacts from fetched trees.
var ignoredPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\.git/`),
	regexp.MustCompile(`node_modules`),
	regexp.MustCompile(`\.lock$`),
	regexp.MustCompile(`package-lock\.json$`),
	regexp.MustCompile(`yarn\.lock$`),
	regexp.MustCompile(`pnpm-lock\.yaml$`),
	regexp.MustCompile(`(?i)\.png$`),
	regexp.MustCompile(`(?i)\.jpg$`),
	regexp.MustCompile(`(?i)\.jpeg$`),
	regexp.MustCompile(`(?i)\.gif$`),
	regexp.MustCompile(`(?i)\.svg$`),
	regexp.MustCompile(`(?i)\.ico$`),
	regexp.MustCompile(`(?i)\.woff2?$`),
	regexp.MustCompile(`(?i)\.ttf$`),
	regexp.MustCompile(`(?i)\.eot$`),
	regexp.MustCompile(`(?i)\.mp3$`),
	regexp.MustCompile(`(?i)\.mp4$`),
	regexp.MustCompile(`(?i)\.webm$`),
	regexp.MustCompile(`(?i)\.pdf$`),
	regexp.MustCompile(`(?i)\.zip$`),
	regexp.MustCompile(`(?i)\.tar$`),
	regexp.MustCompile(`(?i)\.gz$`),
	regexp.MustCompile(`^\.gitignore$`),
	regexp.MustCompile(`^\.gitattributes$`),
	regexp.MustCompile(`^\.editorconfig$`),
	regexp.MustCompile(`^\.prettierignore$`),
	regexp.MustCompile(`^\.eslintignore$`),
	regexp.MustCompile(`^\.DS_Store$`),
	regexp.MustCompile(`^Thumbs\.db$`),
	regexp.MustCompile(`\.min\.js$`),
	regexp.MustCompile(`\.min\.css$`),
	regexp.MustCompile(`dist/`),
	regexp.MustCompile(`build/`),
	regexp.MustCompile(`\.next/`),
	regexp.MustCompile(`coverage/`),
}

// includePath reports whether a tree path survives the exclusion filter.
func includePath(path string) bool {
	for _, p := range ignoredPatterns {
		if p.MatchString(path) {
			return false
		}
	}
	return true
}
