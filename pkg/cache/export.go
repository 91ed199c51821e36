package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"go.uber.org/zap"
)

// SnapshotSchemaVersion is written into every export file.
const SnapshotSchemaVersion = "1.0"

// Snapshot is the flattened, search-friendly export format.
type Snapshot struct {
	Metadata  SnapshotHeader     `json:"metadata"`
	Functions []SnapshotFunction `json:"functions"`
}

type SnapshotHeader struct {
	ExportedAt     time.Time `json:"exportedAt"`
	TotalFunctions int       `json:"totalFunctions"`
	SchemaVersion  string    `json:"schemaVersion"`
}

type SnapshotFunction struct {
	FunctionName string             `json:"function_name"`
	Description  string             `json:"description"`
	Area         string             `json:"area"`
	DevClass     string             `json:"dev_class"`
	Parameters   SnapshotParameters `json:"parameters"`
	SearchText   string             `json:"search_text"`
}

type SnapshotParameters struct {
	Inputs  []SnapshotParameter `json:"inputs"`
	Outputs []SnapshotParameter `json:"outputs"`
	Tables  []SnapshotParameter `json:"tables"`
}

type SnapshotParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     string `json:"default"`
}

// BuildSnapshot collects every valid entry, sorted by function name.
func (c *Cache) BuildSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	functions := make([]SnapshotFunction, 0, len(c.entries))
	for name, entry := range c.entries {
		if !c.isValid(entry) {
			continue
		}
		md := entry.Metadata
		functions = append(functions, SnapshotFunction{
			FunctionName: name,
			Description:  md.Description,
			Area:         md.Area,
			DevClass:     md.DevClass,
			Parameters: SnapshotParameters{
				Inputs:  flattenParameters(md.Inputs),
				Outputs: flattenParameters(md.Outputs),
				Tables:  flattenParameters(md.Tables),
			},
			SearchText: searchText(name, md),
		})
	}
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].FunctionName < functions[j].FunctionName
	})

	return Snapshot{
		Metadata: SnapshotHeader{
			ExportedAt:     c.now(),
			TotalFunctions: len(functions),
			SchemaVersion:  SnapshotSchemaVersion,
		},
		Functions: functions,
	}
}

// ExportSnapshot writes BuildSnapshot to path as indented JSON and returns the
// number of exported functions.
func (c *Cache) ExportSnapshot(path string) (int, error) {
	snapshot := c.BuildSnapshot()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write snapshot: %w", err)
	}

	c.logger.Info("exported metadata snapshot",
		zap.String("path", path),
		zap.Int("functions", snapshot.Metadata.TotalFunctions))
	return snapshot.Metadata.TotalFunctions, nil
}

func flattenParameters(params map[string]metadata.ParameterMetadata) []SnapshotParameter {
	out := make([]SnapshotParameter, 0, len(params))
	for _, name := range sortedKeys(params) {
		p := params[name]
		description := p.Description
		if description == "" && len(p.Fields) > 0 {
			description = fmt.Sprintf("Table with %d fields", len(p.Fields))
		}
		out = append(out, SnapshotParameter{
			Name:        name,
			Type:        p.Type,
			Description: description,
			Default:     p.Default,
		})
	}
	return out
}

func searchText(name string, md *metadata.FunctionMetadata) string {
	parts := []string{name}
	if md.Description != "" {
		parts = append(parts, md.Description)
	}
	for _, group := range []map[string]metadata.ParameterMetadata{md.Inputs, md.Outputs, md.Tables} {
		for _, paramName := range sortedKeys(group) {
			parts = append(parts, paramName)
			if d := group[paramName].Description; d != "" {
				parts = append(parts, d)
			}
		}
	}
	return strings.Join(parts, " ")
}

func sortedKeys(params map[string]metadata.ParameterMetadata) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
