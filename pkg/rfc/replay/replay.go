// Package replay implements rfc.Caller by answering calls from a recorded
// fixture file. It lets the CLI and tests run without a backend.
package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Fixture maps a function name to the rules answering it, tried in order.
type Fixture struct {
	Functions map[string][]Rule `yaml:"functions" toml:"functions"`
}

// Rule answers a call when every Match entry equals the call parameter of
// the same name and Where occurs in the joined OPTIONS text.
type Rule struct {
	Match  map[string]string      `yaml:"match" toml:"match"`
	Where  string                 `yaml:"where" toml:"where"`
	Rows   []string               `yaml:"rows" toml:"rows"`
	Result map[string]interface{} `yaml:"result" toml:"result"`
	Error  *ErrorSpec             `yaml:"error" toml:"error"`
}

// ErrorSpec describes a backend failure to replay.
type ErrorSpec struct {
	Kind    string `yaml:"kind" toml:"kind"`
	Key     string `yaml:"key" toml:"key"`
	Message string `yaml:"message" toml:"message"`
}

// Caller replays a Fixture.
type Caller struct {
	mu      sync.Mutex
	fixture Fixture
	logger  *zap.Logger
	hits    map[string]int
}

// Load reads a fixture from a .yaml, .yml or .toml file.
func Load(path string, logger *zap.Logger) (*Caller, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fixture); err != nil {
			return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &fixture); err != nil {
			return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", filepath.Ext(path))
	}

	return New(fixture, logger), nil
}

// New creates a Caller for fixture.
func New(fixture Fixture, logger *zap.Logger) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := Fixture{Functions: make(map[string][]Rule, len(fixture.Functions))}
	for name, rules := range fixture.Functions {
		for _, rule := range rules {
			rule.Result = normalizeMap(rule.Result)
			normalized.Functions[strings.ToUpper(name)] = append(normalized.Functions[strings.ToUpper(name)], rule)
		}
	}
	return &Caller{fixture: normalized, logger: logger, hits: make(map[string]int)}
}

// Call implements rfc.Caller.
func (c *Caller) Call(ctx context.Context, function string, params rfc.Params) (rfc.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, rfc.NewError(rfc.KindCommunication, "CANCELLED", err.Error())
	}

	function = strings.ToUpper(function)
	rules, ok := c.fixture.Functions[function]
	if !ok {
		return nil, rfc.NewError(rfc.KindABAP, rfc.KeyFuNotFound, "function "+function+" not in fixture")
	}

	where := optionsText(params)
	for i, rule := range rules {
		if !rule.matches(params, where) {
			continue
		}

		c.mu.Lock()
		c.hits[function]++
		c.mu.Unlock()
		c.logger.Debug("replaying fixture rule", zap.String("function", function), zap.Int("rule", i))

		if rule.Error != nil {
			return nil, rule.Error.toError()
		}
		return rule.result(), nil
	}
	return nil, rfc.NewError(rfc.KindABAP, rfc.KeyNotFound, "no fixture rule matched "+function)
}

// Hits returns how many calls to function were answered.
func (c *Caller) Hits(function string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[strings.ToUpper(function)]
}

func (r Rule) matches(params rfc.Params, where string) bool {
	for key, want := range r.Match {
		if !strings.EqualFold(rfc.TrimmedString(params, strings.ToUpper(key)), want) {
			return false
		}
	}
	return r.Where == "" || strings.Contains(where, r.Where)
}

func (r Rule) result() rfc.Result {
	out := rfc.Result{}
	for k, v := range r.Result {
		out[k] = v
	}
	if len(r.Rows) > 0 {
		data := make([]map[string]any, 0, len(r.Rows))
		for _, line := range r.Rows {
			data = append(data, map[string]any{"WA": line})
		}
		out["DATA"] = data
	} else if _, ok := out["DATA"]; !ok && r.Result == nil {
		out["DATA"] = []map[string]any{}
	}
	return out
}

func (e *ErrorSpec) toError() error {
	kind := rfc.ErrorKind(strings.ToLower(e.Kind))
	if kind == "" {
		kind = rfc.KindABAP
	}
	return rfc.NewError(kind, e.Key, e.Message)
}

func optionsText(params rfc.Params) string {
	var parts []string
	for _, line := range rfc.Table(params, "OPTIONS") {
		parts = append(parts, rfc.String(line, "TEXT"))
	}
	return strings.Join(parts, " ")
}

// normalizeMap converts the map[interface{}]interface{} values produced by
// yaml.v2 into map[string]any, recursively.
func normalizeMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]interface{}:
		return normalizeMap(t)
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeMap(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
