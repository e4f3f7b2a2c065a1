package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"vss-tools/internal/ports"
	"vss-tools/internal/shared"
	"vss-tools/internal/types"
)

var cborEncMode cbor.EncMode

func init() {
	opts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
	cborEncMode = mode
}

type ExportFileAdapter struct{}

var _ ports.ExportPort = ExportFileAdapter{}

func NewExportFileAdapter() ExportFileAdapter {
	return ExportFileAdapter{}
}

func (a ExportFileAdapter) WriteFlat(path string, format types.ExportFormat, entries []types.FlatEntry) error {
	return a.WriteFlatSet(format, types.FlatDump{Path: path, Entries: entries})
}

// WriteFlatSet encodes every dump before touching the filesystem. When a
// write fails, the files already written by this call are removed again.
func (a ExportFileAdapter) WriteFlatSet(format types.ExportFormat, dumps ...types.FlatDump) error {
	encoded := make([][]byte, len(dumps))
	for i, dump := range dumps {
		data, err := EncodeFlat(format, dump.Entries)
		if err != nil {
			return err
		}
		encoded[i] = data
	}
	var written []string
	for i, dump := range dumps {
		if err := writeDumpFile(dump.Path, encoded[i]); err != nil {
			for _, path := range written {
				_ = os.Remove(path)
			}
			return err
		}
		written = append(written, dump.Path)
		log.Debug().Str("file", dump.Path).Str("format", string(format)).Int("nodes", len(dump.Entries)).Msg("flat dump written")
	}
	return nil
}

func writeDumpFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("failed to create output directory %s", dir)).
				WithCause(err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", path)).
			WithCause(err)
	}
	return nil
}

// EncodeFlat renders entries keyed by FQN. JSON and YAML keep the entry
// order; CBOR uses canonical key order.
func EncodeFlat(format types.ExportFormat, entries []types.FlatEntry) ([]byte, error) {
	switch format {
	case types.ExportFormatJSON:
		return encodeFlatJSON(entries)
	case types.ExportFormatYAML:
		return encodeFlatYAML(entries)
	case types.ExportFormatCBOR:
		return encodeFlatCBOR(entries)
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported export format %q", format))
	}
}

type field struct {
	key   string
	value any
}

// entryFields lists the populated fields of an entry in their fixed order,
// followed by extended attributes sorted by name.
func entryFields(e types.FlatEntry) []field {
	var out []field
	add := func(key string, value any, present bool) {
		if present {
			out = append(out, field{key: key, value: value})
		}
	}
	add("type", string(e.Type), true)
	add("datatype", e.Datatype, e.Datatype != "")
	add("unit", e.Unit, e.Unit != "")
	add("min", e.Min, e.Min != nil)
	add("max", e.Max, e.Max != nil)
	add("allowed", e.Allowed, len(e.Allowed) > 0)
	add("default", e.Default, e.Default != nil)
	add("description", e.Description, true)
	add("comment", e.Comment, e.Comment != "")
	add("deprecation", e.Deprecation, e.Deprecation != "")
	add("uuid", e.UUID, e.UUID != "")
	for _, key := range shared.SortedKeys(e.Extended) {
		add(key, e.Extended[key], true)
	}
	return out
}

func encodeFlatJSON(entries []types.FlatEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, e.FQN); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, f := range entryFields(e) {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, f.key); err != nil {
				return nil, err
			}
			value, err := json.Marshal(f.value)
			if err != nil {
				return nil, exportError(e.FQN, err)
			}
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, exportError("", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	encoded, err := json.Marshal(key)
	if err != nil {
		return exportError(key, err)
	}
	buf.Write(encoded)
	buf.WriteByte(':')
	return nil
}

func encodeFlatYAML(entries []types.FlatEntry) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		body := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range entryFields(e) {
			value := &yaml.Node{}
			if err := value.Encode(f.value); err != nil {
				return nil, exportError(e.FQN, err)
			}
			body.Content = append(body.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: f.key},
				value,
			)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.FQN},
			body,
		)
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return nil, exportError("", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, exportError("", err)
	}
	return buf.Bytes(), nil
}

func encodeFlatCBOR(entries []types.FlatEntry) ([]byte, error) {
	dump := make(map[string]map[string]any, len(entries))
	for _, e := range entries {
		body := map[string]any{}
		for _, f := range entryFields(e) {
			body[f.key] = f.value
		}
		dump[e.FQN] = body
	}
	data, err := cborEncMode.Marshal(dump)
	if err != nil {
		return nil, exportError("", err)
	}
	return data, nil
}

func exportError(fqn string, err error) error {
	msg := "failed to encode flat dump"
	if fqn != "" {
		msg = fmt.Sprintf("%s: failed to encode %s", msg, fqn)
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(err)
}
