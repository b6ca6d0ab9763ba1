package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Pre-compiled patterns for section parsing and required-section checks.
// Heading-level and whitespace variance is tolerated throughout.
var (
	headingRe          = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	anyHeadingRe       = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	reqHeadingRe       = regexp.MustCompile(`(?mi)^#{1,6}\s+(?:\d+[.)]?\s*)?(?:functional\s+)?requirements\b`)
	checkboxRe         = regexp.MustCompile(`(?m)^\s*[-*]\s*\[[ xX]\]\s+`)
	principleHeadRe    = regexp.MustCompile(`(?m)^###\s+\d+\.\s+\S`)
	storiesHeadingRe   = regexp.MustCompile(`(?i)^(?:\d+[.)]?\s*)?user\s+stor(?:y|ies)\b`)
	requirementsHeadRe = regexp.MustCompile(`(?i)^(?:\d+[.)]?\s*)?(?:functional\s+)?requirements\b`)
)

// sectionRequirement names a section an artifact kind must contain.
type sectionRequirement struct {
	// Name is reported in the ParseError when absent
	Name string
	// Pattern matches the raw artifact text
	Pattern *regexp.Regexp
}

// requiredSections maps artifact kinds to the sections they must contain.
// A missing required section is the only fatal condition in the pipeline.
var requiredSections = map[Kind][]sectionRequirement{
	KindSpecification: {
		{Name: "Title", Pattern: anyHeadingRe},
		{Name: "Functional Requirements", Pattern: reqHeadingRe},
	},
	KindPlan: {
		{Name: "Title", Pattern: anyHeadingRe},
	},
	KindTaskList: {
		{Name: "Task Checkboxes", Pattern: checkboxRe},
	},
	KindConstitution: {
		{Name: "Principles", Pattern: principleHeadRe},
	},
}

// Loader discovers and parses the four workflow artifacts.
type Loader struct {
	patterns  map[Kind]string
	converter *Converter
	logger    *slog.Logger
}

// NewLoader creates a loader resolving each artifact kind with the given
// glob pattern (doublestar syntax, relative to the artifact directory).
func NewLoader(patterns map[Kind]string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		patterns:  patterns,
		converter: NewConverter(),
		logger:    logger,
	}
}

// LoadAll loads all four artifacts from dir. The artifacts are independent,
// so each is loaded and parsed on its own goroutine; a barrier join collects
// the results before returning. Errors are reported in canonical kind order
// so repeated runs fail identically.
func (l *Loader) LoadAll(ctx context.Context, dir string) (map[Kind]*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifacts := make([]*Artifact, len(Kinds))
	errs := make([]error, len(Kinds))

	var wg sync.WaitGroup
	for i, kind := range Kinds {
		wg.Add(1)
		go func(i int, kind Kind) {
			defer wg.Done()
			artifacts[i], errs[i] = l.loadKind(dir, kind)
		}(i, kind)
	}
	wg.Wait()

	for i, kind := range Kinds {
		if errs[i] != nil {
			return nil, fmt.Errorf("load %s: %w", kind, errs[i])
		}
	}

	result := make(map[Kind]*Artifact, len(Kinds))
	for i, kind := range Kinds {
		result[kind] = artifacts[i]
	}
	return result, nil
}

// loadKind resolves and parses a single artifact.
func (l *Loader) loadKind(dir string, kind Kind) (*Artifact, error) {
	path, err := l.resolve(dir, kind)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Loading artifact",
		slog.String("kind", string(kind)),
		slog.String("path", path))

	return l.LoadFile(kind, path)
}

// resolve finds the file for an artifact kind. Multiple matches take the
// lexicographically first path for determinism.
func (l *Loader) resolve(dir string, kind Kind) (string, error) {
	pattern, ok := l.patterns[kind]
	if !ok || pattern == "" {
		return "", fmt.Errorf("no pattern configured for %s", kind)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %q: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no file matching %q in %s", pattern, dir)
	}

	sort.Strings(files)
	if len(files) > 1 {
		l.logger.Warn("Multiple artifact matches, using first",
			slog.String("kind", string(kind)),
			slog.String("pattern", pattern),
			slog.String("selected", files[0]))
	}
	return files[0], nil
}

// LoadFile reads and parses one artifact file. HTML files are converted to
// markdown before parsing.
func (l *Loader) LoadFile(kind Kind, path string) (*Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		markdown, title, err := l.converter.Convert(content)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", path, err)
		}
		if title != "" && !anyHeadingRe.MatchString(markdown) {
			markdown = "# " + title + "\n\n" + markdown
		}
		content = []byte(markdown)
	}

	return Parse(kind, path, content)
}

// Parse parses raw artifact text. It extracts optional YAML frontmatter,
// splits the body into heading-delimited sections, and enforces the
// required-section table for the kind. Parsing is pure: identical input
// always yields an identical Artifact.
func Parse(kind Kind, path string, content []byte) (*Artifact, error) {
	a := &Artifact{
		Kind: kind,
		Path: path,
	}

	body := string(content)
	if strings.HasPrefix(body, "---\n") || strings.HasPrefix(body, "---\r\n") {
		if fm, rest, err := extractFrontmatter(body); err == nil {
			a.Frontmatter = fm
			body = rest
		}
	}
	a.RawText = body

	a.Sections = splitSections(body)
	a.Title = firstTitle(a)

	for _, req := range requiredSections[kind] {
		if !req.Pattern.MatchString(body) {
			return nil, &ParseError{Artifact: kind, MissingSection: req.Name}
		}
	}

	return a, nil
}

// splitSections splits markdown into heading-delimited sections, retaining
// the 1-based line number of each heading.
func splitSections(body string) []Section {
	var sections []Section
	var current *Section

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			if current != nil {
				current.Body = strings.TrimRight(current.Body, "\n")
				sections = append(sections, *current)
			}
			current = &Section{
				Heading: m[2],
				Level:   len(m[1]),
				Line:    i + 1,
			}
			continue
		}
		if current != nil {
			current.Body += line + "\n"
		}
	}
	if current != nil {
		current.Body = strings.TrimRight(current.Body, "\n")
		sections = append(sections, *current)
	}

	return sections
}

// firstTitle returns the artifact title: frontmatter "title" wins, then the
// first level-1 heading, then the first heading of any level.
func firstTitle(a *Artifact) string {
	if t, ok := a.Frontmatter["title"].(string); ok && t != "" {
		return t
	}
	for _, s := range a.Sections {
		if s.Level == 1 {
			return s.Heading
		}
	}
	if len(a.Sections) > 0 {
		return a.Sections[0].Heading
	}
	return ""
}

// extractFrontmatter parses YAML frontmatter from markdown content.
// Returns the parsed frontmatter map, the remaining body, and any error.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	// Skip the opening delimiter
	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	// Find the closing delimiter
	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		closeIdx = strings.Index(content[start:], "\r\n"+delimiter)
	}
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start : start+closeIdx]

	// Find where the body starts (after closing delimiter and newline)
	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}

	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}

	return frontmatter, body, nil
}
