// Package resolver reconstructs function interfaces from the backend
// catalog and keeps them in the metadata cache.
package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/ignitionstack/rfcbridge/pkg/errors"
	"github.com/ignitionstack/rfcbridge/pkg/mapping"
	"github.com/ignitionstack/rfcbridge/pkg/metadata"
	"github.com/ignitionstack/rfcbridge/pkg/rfc"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultLanguage is the ISO language used when none is requested.
const DefaultLanguage = "EN"

// Backend functions used during resolution.
const (
	fnSystemInfo   = "RFC_SYSTEM_INFO"
	fnReadTable    = "RFC_READ_TABLE"
	fnInterface    = "RFC_GET_FUNCTION_INTERFACE_US"
	fnFieldInfo    = "DDIF_FIELDINFO_GET"
	catalogTable   = "INFO_FUNCT"
	dataElementTab = "DD04V"
	fieldDelimiter = "|"
)

// Store is the cache the resolver reads from and writes to.
type Store interface {
	Get(name string) (*metadata.FunctionMetadata, bool)
	Put(name string, md *metadata.FunctionMetadata)
}

// Options configures a Resolver.
type Options struct {
	// DefaultLanguage is an ISO 639-1 code; EN when empty.
	DefaultLanguage string
	Logger          *zap.Logger
	Clock           func() time.Time
}

// SystemInfo is the result of the version probe.
type SystemInfo struct {
	Release  string                  `json:"release"`
	Category mapping.VersionCategory `json:"category"`
	SystemID string                  `json:"system_id,omitempty"`
	Host     string                  `json:"host,omitempty"`
	Database string                  `json:"database,omitempty"`
	Detected bool                    `json:"detected"`
}

// Resolver resolves function metadata, consulting the cache first.
type Resolver struct {
	caller          rfc.Caller
	store           Store
	languages       *mapping.LanguageMapper
	defaultLanguage string
	logger          *zap.Logger
	now             func() time.Time

	group singleflight.Group

	probeMu sync.Mutex
	probed  bool
	system  SystemInfo
}

// New creates a resolver calling the backend through caller.
func New(caller rfc.Caller, store Store, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lang := strings.ToUpper(strings.TrimSpace(opts.DefaultLanguage))
	if lang == "" {
		lang = DefaultLanguage
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		caller:          caller,
		store:           store,
		languages:       mapping.NewLanguageMapper(logger),
		defaultLanguage: lang,
		logger:          logger,
		now:             now,
	}
}

// DefaultLanguage returns the configured default ISO language.
func (r *Resolver) DefaultLanguage() string {
	return r.defaultLanguage
}

// GetFunctionMetadata returns the interface of name. A valid cache entry is
// returned without contacting the backend unless forceRefresh is set.
// Concurrent misses for the same function share one resolution.
func (r *Resolver) GetFunctionMetadata(ctx context.Context, name, language string, forceRefresh bool) (*metadata.FunctionMetadata, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "function name is required")
	}
	language = r.language(language)

	if !forceRefresh {
		if md, ok := r.store.Get(name); ok {
			r.logger.Debug("metadata served from cache", zap.String("function", name))
			return md, nil
		}
	}

	key := name + "\x00" + language
	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		md, err := r.resolve(ctx, name, language)
		if err != nil {
			return nil, err
		}
		r.store.Put(name, md)
		return md, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("shared in-flight resolution", zap.String("function", name))
	}
	return v.(*metadata.FunctionMetadata).Clone(), nil
}

// SystemInfo returns the probed backend release, probing on first use.
func (r *Resolver) SystemInfo(ctx context.Context) SystemInfo {
	r.probeMu.Lock()
	defer r.probeMu.Unlock()

	if r.probed {
		return r.system
	}
	r.probed = true

	result, err := r.caller.Call(ctx, fnSystemInfo, rfc.Params{})
	if err != nil {
		r.logger.Warn("could not detect backend release, assuming legacy system",
			zap.String("category", string(mapping.CategoryMostStrict)),
			zap.Error(err))
		r.system = SystemInfo{Release: "Unknown", Category: mapping.CategoryMostStrict}
		return r.system
	}

	export := rfc.Struct(result, "RFCSI_EXPORT")
	release := rfc.TrimmedString(export, "RFCSAPRL")
	r.system = SystemInfo{
		Release:  release,
		Category: mapping.CategorizeRelease(release),
		SystemID: rfc.TrimmedString(export, "RFCSYSID"),
		Host:     rfc.TrimmedString(export, "RFCHOST"),
		Database: rfc.TrimmedString(export, "RFCDBSYS"),
		Detected: true,
	}
	r.logger.Info("detected backend release",
		zap.String("release", release),
		zap.String("category", string(r.system.Category)))
	return r.system
}

func (r *Resolver) resolve(ctx context.Context, name, language string) (*metadata.FunctionMetadata, error) {
	r.logger.Info("retrieving function metadata from backend",
		zap.String("function", name),
		zap.String("language", language))

	system := r.SystemInfo(ctx)

	md, err := r.catalogEntry(ctx, name)
	if err != nil {
		return nil, err
	}

	params, usedLanguage, err := r.interfaceParams(ctx, name, language, system.Category)
	if err != nil {
		return nil, err
	}

	md.Language = usedLanguage
	md.SchemaVersion = metadata.SchemaVersion
	md.RetrievedAt = r.now()
	r.expandParameters(ctx, md, params, system.Category)

	if len(md.PartialParameters) > 0 {
		r.logger.Warn("resolved function with partial metadata",
			zap.String("function", name),
			zap.Strings("parameters", md.PartialParameters))
	}
	return md, nil
}

func (r *Resolver) language(language string) string {
	language = strings.ToUpper(strings.TrimSpace(language))
	if language == "" {
		return r.defaultLanguage
	}
	return language
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
