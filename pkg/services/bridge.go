// Package services exposes every rfcbridge operation behind request
// validation. The CLI and any other front end talk to a BridgeService.
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/ignitionstack/rfcbridge/pkg/cache"
	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/resolver"
	"github.com/ignitionstack/rfcbridge/pkg/tableread"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"go.uber.org/zap"
)

// BridgeService defines the operations offered to clients
type BridgeService interface {
	// GetFunctionMetadata returns the interface of one function
	GetFunctionMetadata(ctx context.Context, req types.MetadataRequest) (*metadata.FunctionMetadata, error)

	// BulkLoad resolves several functions, recording failures per name
	BulkLoad(ctx context.Context, req types.BulkLoadRequest) (*types.BulkLoadResponse, error)

	// Search ranks cached functions against a free-text query
	Search(req types.SearchRequest) (*types.SearchResponse, error)

	CacheStats() cache.Stats
	PurgeExpired() types.PurgeResponse
	ExportSnapshot(req types.ExportRequest) (*types.ExportResponse, error)

	// ListFunctions lists remote-enabled functions from the catalog
	ListFunctions(ctx context.Context, req types.ListFunctionsRequest) ([]metadata.FunctionSummary, error)

	SystemInfo(ctx context.Context) resolver.SystemInfo

	// GetTableStructure describes a table. A nil structure means the
	// backend could not describe it.
	GetTableStructure(ctx context.Context, req types.TableRequest) (*metadata.TableStructure, error)

	// ReadTableSafe reads rows without exceeding the transfer buffer,
	// narrowing the field list once on overflow
	ReadTableSafe(ctx context.Context, req types.ReadTableRequest) (*tableread.Result, error)

	// ReadTableIterative reads the requested fields in buffer-sized chunks
	// and merges them row by row
	ReadTableIterative(ctx context.Context, req types.ReadTableRequest) (*tableread.Result, error)
}

type bridgeService struct {
	resolver  *resolver.Resolver
	cache     *cache.Cache
	reader    *tableread.Reader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBridgeService creates a BridgeService over the given components
func NewBridgeService(res *resolver.Resolver, c *cache.Cache, reader *tableread.Reader, logger *zap.Logger) BridgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bridgeService{
		resolver:  res,
		cache:     c,
		reader:    reader,
		validator: validator.New(),
		logger:    logger,
	}
}

func (s *bridgeService) validate(v interface{}) error {
	if err := s.validator.Struct(v); err != nil {
		return apperrors.InvalidRequest(fmt.Sprintf("Validation failed: %v", err), err)
	}
	return nil
}

func (s *bridgeService) GetFunctionMetadata(ctx context.Context, req types.MetadataRequest) (*metadata.FunctionMetadata, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.resolver.GetFunctionMetadata(ctx, req.Name, req.Language, req.ForceRefresh)
}

func (s *bridgeService) BulkLoad(ctx context.Context, req types.BulkLoadRequest) (*types.BulkLoadResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	results := s.resolver.BulkLoad(ctx, req.Names, req.Language)
	resp := &types.BulkLoadResponse{Results: results}
	for _, res := range results {
		if res.Error != "" {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	return resp, nil
}

func (s *bridgeService) Search(req types.SearchRequest) (*types.SearchResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	results := s.cache.Search(req.Query, req.Limit)
	if results == nil {
		results = []cache.SearchResult{}
	}
	return &types.SearchResponse{Query: req.Query, Results: results}, nil
}

func (s *bridgeService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *bridgeService) PurgeExpired() types.PurgeResponse {
	removed := s.cache.PurgeExpired()
	s.logger.Info("purged expired cache entries", zap.Int("removed", removed))
	return types.PurgeResponse{Removed: removed}
}

func (s *bridgeService) ExportSnapshot(req types.ExportRequest) (*types.ExportResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	n, err := s.cache.ExportSnapshot(req.Path)
	if err != nil {
		return nil, err
	}
	return &types.ExportResponse{Path: req.Path, Exported: n}, nil
}

func (s *bridgeService) ListFunctions(ctx context.Context, req types.ListFunctionsRequest) ([]metadata.FunctionSummary, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	functions, err := s.resolver.ListFunctions(ctx, req.Mask, req.DevClass, req.MaxRows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(functions, func(i, j int) bool { return functions[i].Name < functions[j].Name })
	return functions, nil
}

func (s *bridgeService) SystemInfo(ctx context.Context) resolver.SystemInfo {
	return s.resolver.SystemInfo(ctx)
}

func (s *bridgeService) GetTableStructure(ctx context.Context, req types.TableRequest) (*metadata.TableStructure, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.reader.GetTableStructure(ctx, req.Table), nil
}

func (s *bridgeService) ReadTableSafe(ctx context.Context, req types.ReadTableRequest) (*tableread.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.reader.ReadTableSafe(ctx, readRequest(req))
}

func (s *bridgeService) ReadTableIterative(ctx context.Context, req types.ReadTableRequest) (*tableread.Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.reader.ReadTableIterative(ctx, readRequest(req))
}

func readRequest(req types.ReadTableRequest) tableread.Request {
	return tableread.Request{
		Table:     req.Table,
		Fields:    req.Fields,
		Where:     req.Where,
		MaxRows:   req.MaxRows,
		Delimiter: req.Delimiter,
	}
}
