package adapters

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"vss-tools/internal/ports"
	"vss-tools/internal/types"
)

const includeDirective = "#include"

var includePattern = regexp.MustCompile(`^#include\s+(\S+)(?:\s+(\S+))?\s*$`)

type VspecFileAdapter struct{}

var _ ports.VspecSourcePort = VspecFileAdapter{}

func NewVspecFileAdapter() VspecFileAdapter {
	return VspecFileAdapter{}
}

// LoadFlat reads path and every file it includes into flat records, in
// declaration order. Included records take the place of their directive.
func (a VspecFileAdapter) LoadFlat(ctx context.Context, path string, includeDirs []string, treeKind types.TreeKind) ([]types.FlatRecord, error) {
	loader := flatLoader{
		includeDirs: includeDirs,
		treeKind:    treeKind,
	}
	records, err := loader.load(ctx, path, "")
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Int("records", len(records)).Int("files", loader.files).Msg("vspec loaded")
	return records, nil
}

type flatLoader struct {
	includeDirs []string
	treeKind    types.TreeKind
	stack       []string
	files       int
}

type include struct {
	file   string
	prefix string
	line   int
}

// entry is either a record or an include directive, ordered by line.
type entry struct {
	line    int
	record  *types.FlatRecord
	include *include
}

func (l *flatLoader) load(ctx context.Context, path string, prefix string) ([]types.FlatRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid vspec path %s", path)).
			WithCause(err)
	}
	for _, open := range l.stack {
		if open == abs {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("include cycle: %s -> %s", strings.Join(l.stack, " -> "), abs))
		}
	}
	l.stack = append(l.stack, abs)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("vspec file not found: %s", path)).
			WithCause(err)
	}
	l.files++

	includes, err := scanIncludes(path, data)
	if err != nil {
		return nil, err
	}
	records, err := parseRecords(path, data, prefix, l.treeKind)
	if err != nil {
		return nil, err
	}

	entries := make([]entry, 0, len(includes)+len(records))
	for i := range records {
		entries = append(entries, entry{line: records[i].Source.Line, record: &records[i]})
	}
	for i := range includes {
		entries = append(entries, entry{line: includes[i].line, include: &includes[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].line < entries[j].line })

	var out []types.FlatRecord
	for _, e := range entries {
		if e.record != nil {
			out = append(out, *e.record)
			continue
		}
		target, err := l.resolve(path, e.include)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", path).Str("include", target).Str("prefix", e.include.prefix).Msg("including vspec")
		included, err := l.load(ctx, target, joinName(prefix, e.include.prefix))
		if err != nil {
			return nil, err
		}
		out = append(out, included...)
	}
	return out, nil
}

// resolve finds an included file in the include directories first and
// then next to the including file.
func (l *flatLoader) resolve(from string, inc *include) (string, error) {
	if filepath.IsAbs(inc.file) {
		if fileExists(inc.file) {
			return inc.file, nil
		}
	} else {
		dirs := append(append([]string(nil), l.includeDirs...), filepath.Dir(from))
		for _, dir := range dirs {
			candidate := filepath.Join(dir, inc.file)
			if fileExists(candidate) {
				return candidate, nil
			}
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s:%d: include file %s not found", from, inc.line, inc.file))
}

func scanIncludes(path string, data []byte) ([]include, error) {
	var out []include
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(text, includeDirective) {
			continue
		}
		match := includePattern.FindStringSubmatch(text)
		if match == nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("%s:%d: malformed include directive %q", path, line, text))
		}
		out = append(out, include{file: match[1], prefix: match[2], line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: failed to scan includes", path)).
			WithCause(err)
	}
	return out, nil
}

func parseRecords(path string, data []byte, prefix string, treeKind types.TreeKind) ([]types.FlatRecord, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: failed to parse vspec yaml", path)).
			WithCause(err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	top := doc.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return nil, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s:%d: top level of a vspec file must be a mapping", path, top.Line))
	}

	records := make([]types.FlatRecord, 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key := top.Content[i]
		value := top.Content[i+1]
		source := types.SourceRef{File: path, Line: key.Line}
		record, err := parseRecord(source, key, value, prefix, treeKind)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRecord(source types.SourceRef, key *yaml.Node, value *yaml.Node, prefix string, treeKind types.TreeKind) (types.FlatRecord, error) {
	if key.Kind != yaml.ScalarNode || strings.TrimSpace(key.Value) == "" {
		return types.FlatRecord{}, parseError(source, "invalid node name")
	}
	if value.Kind != yaml.MappingNode {
		return types.FlatRecord{}, parseError(source, fmt.Sprintf("%s: entry must be a mapping", key.Value))
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "allowed" && value.Content[i+1].Kind != yaml.SequenceNode {
			return types.FlatRecord{}, parseError(types.SourceRef{File: source.File, Line: value.Content[i].Line},
				fmt.Sprintf("%s: 'allowed' must be a list", key.Value))
		}
	}

	attrs := map[string]any{}
	if err := value.Decode(&attrs); err != nil {
		return types.FlatRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("%s: %s: invalid attributes", source, key.Value)).
			WithCause(err)
	}
	for name, v := range attrs {
		if v == nil {
			delete(attrs, name)
		}
	}

	record := types.FlatRecord{
		Name:   joinName(prefix, key.Value),
		Kind:   types.NodeKindBranch,
		Source: source,
	}
	if raw, ok := attrs["type"]; ok {
		token, _ := raw.(string)
		kind, ok := treeKind.ParseNodeKind(token)
		if !ok {
			return types.FlatRecord{}, parseError(source, fmt.Sprintf("%s: unknown type %v", key.Value, raw))
		}
		record.Kind = kind
		record.TypeDeclared = true
		delete(attrs, "type")
	}
	record.Attributes = attrs
	return record, nil
}

func parseError(source types.SourceRef, msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s: %s", source, msg))
}

func joinName(prefix string, name string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
