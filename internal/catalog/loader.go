package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

// placeholderRE matches "${N}" placeholders inside an exec template.
var placeholderRE = regexp.MustCompile(`\$\{(\d+)\}`)

// Load reads path as a catalog source: a single INI file, or every regular
// file directly inside path if it is a directory. Sections with no exec key
// are skipped silently. A section whose exec contains a shell pipe is
// skipped with a warning. A section whose argN fails to compile is skipped
// with a logged error; other sections still load. A section missing a
// required argN key fails the whole load.
func Load(log *zap.Logger, path string) (Catalog, error) {
	files, err := sourceFiles(path)
	if err != nil {
		return nil, err
	}

	cat := make(Catalog)
	for _, f := range files {
		if err := loadFile(log, cat, f); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", f, err)
		}
	}
	return cat, nil
}

// sourceFiles resolves path to the ordered list of INI files to read.
func sourceFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func loadFile(log *zap.Logger, cat Catalog, path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return err
	}

	for _, sec := range cfg.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			continue
		}

		cmd, err := compileSection(log, name, sec)
		if err != nil {
			return err
		}
		if cmd == nil {
			continue // skipped: no exec, or shell pipe, or bad regex
		}
		cat[name] = cmd
	}
	return nil
}

// compileSection compiles one INI section into a Command. Returns (nil, nil)
// for sections that are skipped: silently when exec is absent or empty, with
// a logged warning or error for a shell pipe or a bad argument regex.
func compileSection(log *zap.Logger, name string, sec *ini.Section) (*Command, error) {
	if !sec.HasKey("exec") {
		return nil, nil // no exec: skip silently
	}
	exec := sec.Key("exec").String()
	if exec == "" {
		return nil, nil
	}

	if strings.Contains(exec, "|") {
		log.Warn("catalog: shell pipe not supported, skipping command",
			zap.String("command", name))
		return nil, nil
	}

	indices := placeholderIndices(exec)

	timeLimit := DefaultTimeLimit
	if sec.HasKey("time_limit") {
		n, err := strconv.ParseUint(sec.Key("time_limit").String(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("section %q: bad time_limit: %w", name, err)
		}
		timeLimit = time.Duration(n) * time.Second
	}

	args := make([]*regexp.Regexp, len(indices))
	skip := false
	for _, idx := range indices {
		key := fmt.Sprintf("arg%d", idx)
		if !sec.HasKey(key) {
			return nil, fmt.Errorf("section %q: missing required key %q", name, key)
		}
		pattern := sec.Key(key).String()
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Error("catalog: bad argument regex, skipping command",
				zap.String("command", name), zap.String("key", key), zap.Error(err))
			skip = true
			continue
		}
		args[idx] = re
	}
	if skip {
		return nil, nil
	}

	return &Command{Name: name, Exec: exec, Args: args, TimeLimit: timeLimit}, nil
}

// placeholderIndices returns every index from 0 up to the highest "${N}"
// index referenced anywhere in exec, in order, including indices in that
// range that exec never references.
func placeholderIndices(exec string) []int {
	matches := placeholderRE.FindAllStringSubmatch(exec, -1)
	seen := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		n, _ := strconv.Atoi(m[1])
		seen[n] = struct{}{}
	}

	maxIdx := -1
	for n := range seen {
		if n > maxIdx {
			maxIdx = n
		}
	}
	if maxIdx < 0 {
		return nil
	}

	indices := make([]int, maxIdx+1)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
