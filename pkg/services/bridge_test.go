package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ignitionstack/rfcbridge/internal/repository"
	"github.com/ignitionstack/rfcbridge/pkg/cache"
	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/resolver"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"github.com/ignitionstack/rfcbridge/pkg/rfc/replay"
	"github.com/ignitionstack/rfcbridge/pkg/tableread"
	"github.com/ignitionstack/rfcbridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (BridgeService, *replay.Caller) {
	t.Helper()
	backend, err := replay.Load(filepath.Join("..", "rfc", "replay", "testdata", "backend.yaml"), nil)
	require.NoError(t, err)

	repo, err := repository.OpenInMemory(nil)
	require.NoError(t, err)
	c := cache.New(repo, time.Hour)
	t.Cleanup(func() { _ = c.Close() })

	caller := rfc.NewSerialCaller(backend, time.Second, nil)
	res := resolver.New(caller, c, resolver.Options{})
	reader := tableread.New(caller, tableread.Options{})
	return NewBridgeService(res, c, reader, nil), backend
}

func TestGetFunctionMetadata(t *testing.T) {
	svc, backend := newTestService(t)
	ctx := context.Background()

	md, err := svc.GetFunctionMetadata(ctx, types.MetadataRequest{Name: "rfc_system_info"})
	require.NoError(t, err)
	assert.Equal(t, "RFC_SYSTEM_INFO", md.Name)
	assert.Equal(t, "Read system information", md.Description)
	require.Contains(t, md.Outputs, "RFCSI_EXPORT")
	assert.Equal(t, "STRUCTURE", md.Outputs["RFCSI_EXPORT"].Type)
	assert.Len(t, md.Outputs["RFCSI_EXPORT"].Fields, 2)
	require.Contains(t, md.Inputs, "DESTINATION")
	assert.True(t, md.Inputs["DESTINATION"].Optional)

	_, err = svc.GetFunctionMetadata(ctx, types.MetadataRequest{Name: "RFC_SYSTEM_INFO"})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Hits("RFC_GET_FUNCTION_INTERFACE_US"))
}

func TestRequestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetFunctionMetadata(ctx, types.MetadataRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidRequest))

	_, err = svc.GetFunctionMetadata(ctx, types.MetadataRequest{Name: "X", Language: "ENG"})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidRequest))

	_, err = svc.BulkLoad(ctx, types.BulkLoadRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidRequest))

	_, err = svc.Search(types.SearchRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidRequest))

	_, err = svc.ExportSnapshot(types.ExportRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidRequest))

	_, err = svc.ReadTableSafe(ctx, types.ReadTableRequest{TableRequest: types.TableRequest{Table: "T000"}, Delimiter: ";;"})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidRequest))
}

func TestBulkLoadAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.BulkLoad(ctx, types.BulkLoadRequest{Names: []string{"RFC_SYSTEM_INFO", "Z_MISSING"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, apperrors.KindNotFound, resp.Results["Z_MISSING"].Code)

	found, err := svc.Search(types.SearchRequest{Query: "system"})
	require.NoError(t, err)
	require.NotEmpty(t, found.Results)
	assert.Equal(t, "RFC_SYSTEM_INFO", found.Results[0].Name)

	none, err := svc.Search(types.SearchRequest{Query: "payroll"})
	require.NoError(t, err)
	assert.NotNil(t, none.Results)
	assert.Empty(t, none.Results)

	stats := svc.CacheStats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 0, svc.PurgeExpired().Removed)
}

func TestExportSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetFunctionMetadata(context.Background(), types.MetadataRequest{Name: "RFC_SYSTEM_INFO"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "snapshot.json")
	resp, err := svc.ExportSnapshot(types.ExportRequest{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Exported)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestListFunctionsSorted(t *testing.T) {
	svc, _ := newTestService(t)

	functions, err := svc.ListFunctions(context.Background(), types.ListFunctionsRequest{Mask: "RFC*"})
	require.NoError(t, err)
	require.Len(t, functions, 2)
	assert.Equal(t, "RFC_PING", functions[0].Name)
	assert.Equal(t, "RFC_SYSTEM_INFO", functions[1].Name)
}

func TestSystemInfo(t *testing.T) {
	svc, _ := newTestService(t)

	info := svc.SystemInfo(context.Background())
	assert.True(t, info.Detected)
	assert.Equal(t, "750", info.Release)
	assert.Equal(t, "NPL", info.SystemID)
}

func TestReadTable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	structure, err := svc.GetTableStructure(ctx, types.TableRequest{Table: "T000"})
	require.NoError(t, err)
	assert.True(t, structure.StructureAvailable)
	assert.Len(t, structure.Fields, 5)

	res, err := svc.ReadTableSafe(ctx, types.ReadTableRequest{TableRequest: types.TableRequest{Table: "T000"}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, "000", res.Rows[0]["MANDT"])

	res, err = svc.ReadTableSafe(ctx, types.ReadTableRequest{
		TableRequest: types.TableRequest{Table: "T000"},
		Where:        []string{"MANDT = '001'"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	assert.Equal(t, "001", res.Rows[0]["MANDT"])

	res, err = svc.ReadTableSafe(ctx, types.ReadTableRequest{TableRequest: types.TableRequest{Table: "ZZZ"}})
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, apperrors.KindNotFound, res.ErrorCode)
}

func TestReadTableIterative(t *testing.T) {
	svc, backend := newTestService(t)

	res, err := svc.ReadTableIterative(context.Background(), types.ReadTableRequest{
		TableRequest: types.TableRequest{Table: "T000"},
		Fields:       []string{"MANDT", "MTEXT"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, tableread.MethodIterative, res.Method)
	assert.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, 1, backend.Hits("RFC_READ_TABLE"))
}
