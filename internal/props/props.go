// Package props holds the string properties that tune a test run, grouped
// by context, and loads them from a YAML file.
//
// A properties file looks like:
//
//	project:
//	  reports.dir: build/reports
//	output:
//	  log.levels: warn,info
//	  color: false
package props

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the properties file looked up when none is named.
const DefaultFile = ".verdict.yml"

// Context groups related keys.
type Context string

const (
	Project Context = "project"
	Output  Context = "output"
)

const (
	// ReportsDir is the directory report files are written to. There is no
	// default; without it no reports are written.
	ReportsDir = "reports.dir"
	// LogLevels lists the enabled output levels, e.g. "warn,info,debug".
	LogLevels = "log.levels"
	// Decorated turns markup rendering and progress lines on or off.
	Decorated = "decorated"
	// Color turns ANSI colours on or off.
	Color = "color"
)

// DefaultLogLevels is used when LogLevels is not set.
const DefaultLogLevels = "warn,info"

//go:embed props.schema.json
var schemaData []byte

var (
	schema      *jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaData))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal props schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("props.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add props schema resource: %w", err)
			return
		}
		schema, err = compiler.Compile("props.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile props schema: %w", err)
		}
	})
	return compileErr
}

// Store maps context and key to a value. The zero value is not usable; use
// New or Load.
type Store struct {
	values map[Context]map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[Context]map[string]string)}
}

// Load reads the properties file at path. A missing file is not an error
// and yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read properties: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates YAML properties.
func Parse(data []byte) (*Store, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return New(), nil
	}

	// Round trip through JSON so the validator sees JSON types only.
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("properties are not representable as JSON: %w", err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compileSchema(); err != nil {
		return nil, err
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("properties validation failed: %w", err)
	}

	s := New()
	for ctx, keys := range v.(map[string]interface{}) {
		for key, value := range keys.(map[string]interface{}) {
			s.Set(Context(ctx), key, fmt.Sprint(value))
		}
	}
	return s, nil
}

// Get returns the value of key in ctx.
func (s *Store) Get(key string, ctx Context) (string, bool) {
	v, ok := s.values[ctx][key]
	return v, ok
}

// GetOr returns the value of key in ctx, or def when it is not set.
func (s *Store) GetOr(key string, ctx Context, def string) string {
	if v, ok := s.Get(key, ctx); ok {
		return v
	}
	return def
}

// Bool interprets key in ctx as a flag. Only a case-insensitive "false"
// turns a flag off; any other value turns it on. def is returned when the
// key is not set.
func (s *Store) Bool(key string, ctx Context, def bool) bool {
	v, ok := s.Get(key, ctx)
	if !ok {
		return def
	}
	return !strings.EqualFold(strings.TrimSpace(v), strconv.FormatBool(false))
}

// Set stores value under key in ctx, replacing any previous value.
func (s *Store) Set(ctx Context, key, value string) {
	keys, ok := s.values[ctx]
	if !ok {
		keys = make(map[string]string)
		s.values[ctx] = keys
	}
	keys[key] = value
}

// Keys lists the keys set in ctx in sorted order.
func (s *Store) Keys(ctx Context) []string {
	keys := make([]string, 0, len(s.values[ctx]))
	for k := range s.values[ctx] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
