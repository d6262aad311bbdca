// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pgscope/cli/internal/db"
)

// fakeAdapter scripts adapter behavior for worker tests. closeC simulates
// the network connection terminating.
type fakeAdapter struct {
	mu           sync.Mutex
	connectErr   error
	executeErr   error
	result       *db.QueryResult
	schemas      []string
	tables       []string
	columns      []db.ColumnMetadata
	metadataErr  error
	closeC       chan struct{}
	closeOnce    sync.Once
	closeReason  string
	disconnected bool
	calls        []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		result: &db.QueryResult{Columns: []string{"n"}, Rows: [][]string{{"1"}}, RowCount: 1},
		closeC: make(chan struct{}),
	}
}

func (f *fakeAdapter) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAdapter) Connect(ctx context.Context) (*db.CloseMonitor, error) {
	f.record("connect")
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return db.NewCloseMonitor(f.closeC, func() string {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.disconnected {
			return ""
		}
		return f.closeReason
	}), nil
}

func (f *fakeAdapter) Disconnect(ctx context.Context) {
	f.record("disconnect")
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.closeC) })
}

// dropConnection simulates the server killing the connection.
func (f *fakeAdapter) dropConnection(reason string) {
	f.mu.Lock()
	f.closeReason = reason
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.closeC) })
}

func (f *fakeAdapter) Execute(ctx context.Context, sql string, limit int) (*db.QueryResult, error) {
	f.record("execute:" + sql)
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	return f.result, nil
}

func (f *fakeAdapter) FetchSchemas(ctx context.Context) ([]string, error) {
	f.record("schemas")
	return f.schemas, f.metadataErr
}

func (f *fakeAdapter) FetchTables(ctx context.Context, schema string) ([]string, error) {
	f.record("tables:" + schema)
	return f.tables, f.metadataErr
}

func (f *fakeAdapter) FetchColumns(ctx context.Context, schema, table string) ([]db.ColumnMetadata, error) {
	f.record("columns:" + schema + "." + table)
	return f.columns, f.metadataErr
}

func (f *fakeAdapter) PreviewTable(ctx context.Context, schema, table string, limit int) (*db.QueryResult, error) {
	f.record("preview:" + schema + "." + table)
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.result, nil
}

func nextEvent(t *testing.T, events *Events) Event {
	t.Helper()
	select {
	case ev, ok := <-events.C():
		require.True(t, ok, "event channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func connectSession(t *testing.T, adapter db.Adapter) (*Events, *Handle) {
	t.Helper()
	events := NewEvents()
	Spawn(adapter, events)
	connected, ok := nextEvent(t, events).(ConnectedEvent)
	require.True(t, ok, "first event must be ConnectedEvent")
	require.NotNil(t, connected.Handle)
	return events, connected.Handle
}

func TestSpawnReportsConnectionFailure(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.connectErr = &db.ConnectionError{
		Kind:    db.KindAuthFailed,
		Summary: "Password authentication failed.",
		Detail:  "28P01",
	}
	events := NewEvents()
	Spawn(adapter, events)

	failed, ok := nextEvent(t, events).(ConnectionFailedEvent)
	require.True(t, ok, "expected ConnectionFailedEvent, got %T", failed)
	require.Equal(t, db.KindAuthFailed, failed.Err.Kind)

	// No Connected event may follow; the sink stays quiet.
	select {
	case ev := <-events.C():
		t.Fatalf("unexpected second event %T", ev)
	case <-time.After(100 * time.Millisecond):
	}
	events.Close()
}

func TestCommandsRunInOrder(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.schemas = []string{"public", "sales"}
	adapter.tables = []string{"users"}
	adapter.columns = []db.ColumnMetadata{{Name: "id", DataType: "integer"}}
	events, handle := connectSession(t, adapter)
	defer events.Close()

	handle.Execute("SELECT 1")
	handle.LoadSchemas()
	handle.LoadTables("public")
	handle.LoadColumns("public", "users")
	handle.PreviewTable("public", "users", 0)

	finished, ok := nextEvent(t, events).(QueryFinishedEvent)
	require.True(t, ok)
	require.Equal(t, 1, finished.Result.RowCount)

	schemas, ok := nextEvent(t, events).(SchemasLoadedEvent)
	require.True(t, ok)
	require.Equal(t, []string{"public", "sales"}, schemas.Schemas)

	tables, ok := nextEvent(t, events).(TablesLoadedEvent)
	require.True(t, ok)
	require.Equal(t, "public", tables.Schema)
	require.Equal(t, []string{"users"}, tables.Tables)

	columns, ok := nextEvent(t, events).(ColumnsLoadedEvent)
	require.True(t, ok)
	require.Equal(t, "users", columns.Table)
	require.Len(t, columns.Columns, 1)

	preview, ok := nextEvent(t, events).(TablePreviewReadyEvent)
	require.True(t, ok)
	require.Equal(t, "users", preview.Table)

	handle.Close()
}

func TestCommandFailuresAreNotFatal(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.executeErr = errors.New(`relation "missing" does not exist`)
	adapter.metadataErr = errors.New("permission denied")
	events, handle := connectSession(t, adapter)
	defer events.Close()

	handle.Execute("SELECT * FROM missing")
	handle.LoadSchemas()

	failed, ok := nextEvent(t, events).(QueryFailedEvent)
	require.True(t, ok)
	require.Contains(t, failed.Message, "missing")

	meta, ok := nextEvent(t, events).(MetadataFailedEvent)
	require.True(t, ok)
	require.Equal(t, "Failed to load schemas: permission denied", meta.Message)

	// The session is still alive and serving commands.
	adapter.executeErr = nil
	handle.Execute("SELECT 1")
	_, ok = nextEvent(t, events).(QueryFinishedEvent)
	require.True(t, ok)

	handle.Close()
}

func TestCloseDisconnectsAndJoins(t *testing.T) {
	adapter := newFakeAdapter()
	events, handle := connectSession(t, adapter)
	defer events.Close()

	handle.Close()

	closed, ok := nextEvent(t, events).(ConnectionClosedEvent)
	require.True(t, ok)
	require.Empty(t, closed.Reason, "requested shutdown carries no reason")

	select {
	case <-handle.Done():
	default:
		t.Fatal("worker should have exited before Close returned")
	}

	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	require.Contains(t, adapter.calls, "disconnect")

	// Late commands are dropped silently, and Close stays idempotent.
	handle.Execute("SELECT 1")
	handle.Close()
}

func TestUnexpectedDisconnectEndsSession(t *testing.T) {
	adapter := newFakeAdapter()
	events, handle := connectSession(t, adapter)
	defer events.Close()

	adapter.dropConnection("server closed the connection unexpectedly")

	closed, ok := nextEvent(t, events).(ConnectionClosedEvent)
	require.True(t, ok)
	require.Equal(t, "server closed the connection unexpectedly", closed.Reason)

	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after the connection dropped")
	}

	// Close after the fact must not hang or emit a second closed event.
	handle.Close()
	select {
	case ev, ok := <-events.C():
		if ok {
			t.Fatalf("unexpected event after close: %T", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}
