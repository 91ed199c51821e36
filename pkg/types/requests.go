package types

import (
	"github.com/ignitionstack/rfcbridge/pkg/cache"
	"github.com/ignitionstack/rfcbridge/pkg/resolver"
)

// MetadataRequest represents a request for one function interface
type MetadataRequest struct {
	Name         string `json:"name" validate:"required"`
	Language     string `json:"language" validate:"omitempty,len=2,alpha"`
	ForceRefresh bool   `json:"force_refresh"`
}

// BulkLoadRequest represents a request to resolve several functions
type BulkLoadRequest struct {
	Names    []string `json:"names" validate:"required,min=1,dive,required"`
	Language string   `json:"language" validate:"omitempty,len=2,alpha"`
}

// BulkLoadResponse maps every requested name to its outcome
type BulkLoadResponse struct {
	Succeeded int                            `json:"succeeded"`
	Failed    int                            `json:"failed"`
	Results   map[string]resolver.BulkResult `json:"results"`
}

// SearchRequest represents a cache search
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"gte=0"`
}

// SearchResponse lists the ranked matches
type SearchResponse struct {
	Query   string               `json:"query"`
	Results []cache.SearchResult `json:"results"`
}

// ExportRequest represents a snapshot export
type ExportRequest struct {
	Path string `json:"path" validate:"required"`
}

// ExportResponse reports where and how much was exported
type ExportResponse struct {
	Path     string `json:"path"`
	Exported int    `json:"exported"`
}

// PurgeResponse reports how many entries were removed
type PurgeResponse struct {
	Removed int `json:"removed"`
}

// ListFunctionsRequest represents a catalog listing
type ListFunctionsRequest struct {
	Mask     string `json:"mask"`
	DevClass string `json:"dev_class"`
	MaxRows  int    `json:"max_rows" validate:"gte=0"`
}

// TableRequest identifies a table
type TableRequest struct {
	Table string `json:"table" validate:"required"`
}

// ReadTableRequest represents a buffer-safe table read
type ReadTableRequest struct {
	TableRequest
	Fields    []string `json:"fields" validate:"dive,required"`
	Where     []string `json:"where"`
	MaxRows   int      `json:"max_rows" validate:"gte=0"`
	Delimiter string   `json:"delimiter" validate:"omitempty,len=1"`
}
