package workspace

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreFile is the name of the per-repository ignore file at the root.
const IgnoreFile = ".rugignore"

// alwaysIgnored names are excluded wherever they appear.
var alwaysIgnored = []string{".rug", ".git"}

// IgnoreChecker decides whether a workspace path is excluded from scans.
type IgnoreChecker struct {
	rules []ignoreRule
}

type ignoreRule struct {
	negated  bool
	dirOnly  bool
	anchored bool // contains a slash: matched against the full path
	re       *regexp.Regexp
}

// NewIgnoreChecker loads root/.rugignore, if present, on top of the fixed
// metadata-directory exclusions.
func NewIgnoreChecker(root string) *IgnoreChecker {
	ic := &IgnoreChecker{}
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return ic
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	ic.AddPatterns(lines...)
	return ic
}

// AddPatterns appends gitignore-style lines. Later lines take precedence.
func (ic *IgnoreChecker) AddPatterns(lines ...string) {
	for _, line := range lines {
		if r, ok := parseIgnoreLine(line); ok {
			ic.rules = append(ic.rules, r)
		}
	}
}

func parseIgnoreLine(line string) (ignoreRule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negated = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\`) {
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.Contains(line, "/") {
		r.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return ignoreRule{}, false
	}

	re, err := regexp.Compile(globToRegex(line))
	if err != nil {
		return ignoreRule{}, false
	}
	r.re = re
	return r, true
}

// IsIgnored reports whether the slash-separated relative path is excluded.
// A path beneath an ignored directory is ignored too.
func (ic *IgnoreChecker) IsIgnored(p string, isDir bool) bool {
	p = path.Clean(filepath.ToSlash(p))
	if p == "." || p == "" {
		return false
	}

	segments := strings.Split(p, "/")
	for i := 1; i < len(segments); i++ {
		if ic.matches(strings.Join(segments[:i], "/"), true) {
			return true
		}
	}
	return ic.matches(p, isDir)
}

// matches applies the rules to p alone; the last matching rule wins.
func (ic *IgnoreChecker) matches(p string, isDir bool) bool {
	base := path.Base(p)
	for _, name := range alwaysIgnored {
		if base == name {
			return true
		}
	}

	ignored := false
	for _, r := range ic.rules {
		if r.dirOnly && !isDir {
			continue
		}
		target := base
		if r.anchored {
			target = p
		}
		if r.re.MatchString(target) {
			ignored = !r.negated
		}
	}
	return ignored
}

// globToRegex translates a gitignore glob. "**/" spans zero or more
// directories, "*" and "?" stay within one segment, and bracket classes
// pass through with "!" negation.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				b.WriteString("(?:.*/)?")
				i += 2
			} else {
				b.WriteString(".*")
				i++
			}
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		case ch == '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return b.String()
}
