// Package rfctest provides a programmable rfc.Caller for tests.
package rfctest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ignitionstack/rfcbridge/pkg/rfc"
)

// Handler answers one call.
type Handler func(params rfc.Params) (rfc.Result, error)

// Call records one invocation.
type Call struct {
	Function string
	Params   rfc.Params
}

// FakeCaller dispatches calls to per-function handlers and records them.
type FakeCaller struct {
	mutex    sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

// NewFakeCaller creates an empty fake. Calls to functions without a handler
// fail with FU_NOT_FOUND.
func NewFakeCaller() *FakeCaller {
	return &FakeCaller{handlers: make(map[string]Handler)}
}

// Handle registers h for function, replacing any previous handler.
func (f *FakeCaller) Handle(function string, h Handler) *FakeCaller {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.handlers[function] = h
	return f
}

// Respond registers a fixed result for function.
func (f *FakeCaller) Respond(function string, result rfc.Result) *FakeCaller {
	return f.Handle(function, func(rfc.Params) (rfc.Result, error) {
		return result, nil
	})
}

// Fail registers a fixed error for function.
func (f *FakeCaller) Fail(function string, err error) *FakeCaller {
	return f.Handle(function, func(rfc.Params) (rfc.Result, error) {
		return nil, err
	})
}

// Call implements rfc.Caller.
func (f *FakeCaller) Call(_ context.Context, function string, params rfc.Params) (rfc.Result, error) {
	f.mutex.Lock()
	f.calls = append(f.calls, Call{Function: function, Params: params})
	h, ok := f.handlers[function]
	f.mutex.Unlock()

	if !ok {
		return nil, rfc.NewError(rfc.KindABAP, rfc.KeyFuNotFound, fmt.Sprintf("function %s not handled", function))
	}
	return h(params)
}

// Calls returns a copy of all recorded calls.
func (f *FakeCaller) Calls() []Call {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded calls to function.
func (f *FakeCaller) CallsTo(function string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Function == function {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets the recorded calls but keeps handlers.
func (f *FakeCaller) Reset() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = nil
}

// Rows builds the DATA table of an RFC_READ_TABLE result.
func Rows(lines ...string) rfc.Result {
	data := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		data = append(data, map[string]any{"WA": line})
	}
	return rfc.Result{"DATA": data}
}

// Field builds one DFIES_TAB row.
func Field(name, inttype string, length int, key bool, position int) map[string]any {
	keyFlag := ""
	if key {
		keyFlag = "X"
	}
	return map[string]any{
		"FIELDNAME": name,
		"INTTYPE":   inttype,
		"LENG":      length,
		"DECIMALS":  0,
		"POSITION":  position,
		"KEYFLAG":   keyFlag,
		"FIELDTEXT": name + " text",
		"ROLLNAME":  name,
		"DOMNAME":   name,
	}
}

// FieldInfo builds a DDIF_FIELDINFO_GET result from DFIES rows.
func FieldInfo(fields ...map[string]any) rfc.Result {
	return rfc.Result{"DFIES_TAB": fields}
}
