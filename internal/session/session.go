// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session runs one database connection on a dedicated worker
// goroutine. All interaction is serialized through a command queue and all
// outcomes come back as events; the consumer never touches the connection.
//
// Lifecycle: Spawn starts a worker that connects, then reports exactly one
// of ConnectedEvent (carrying the Handle) or ConnectionFailedEvent. While
// connected the worker executes commands strictly in order, posting one
// outcome event per command. The session ends with a single
// ConnectionClosedEvent, whether the shutdown was requested or the
// connection dropped underneath it.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"pgscope/cli/internal/db"
	"pgscope/cli/internal/profile"
)

// Spawn starts a session worker over the adapter. Exactly one of
// ConnectedEvent or ConnectionFailedEvent is posted per call; the handshake
// runs off the caller's goroutine, so Spawn returns immediately.
func Spawn(adapter db.Adapter, events *Events) {
	// The rendezvous is synchronous: the worker hands the command queue
	// over only once the supervisor is there to take it.
	ready := make(chan *queue[Command])
	done := make(chan struct{})

	go runWorker(adapter, events, ready, done)

	// The supervisor turns the worker's rendezvous into the Connected
	// event. A closed ready channel means the worker already reported
	// ConnectionFailed and is gone.
	go func() {
		cmds, ok := <-ready
		if !ok {
			<-done
			return
		}
		events.emit(ConnectedEvent{Handle: newHandle(cmds, done)})
	}()
}

// SpawnPostgres is the production entry point: a session over a Postgres
// adapter built from a connection profile.
func SpawnPostgres(p profile.ConnectionProfile, password string, events *Events) {
	Spawn(db.NewPostgresAdapter(p, password), events)
}

func runWorker(adapter db.Adapter, events *Events, ready chan<- *queue[Command], done chan<- struct{}) {
	defer close(done)
	ctx := context.Background()

	monitor, err := adapter.Connect(ctx)
	if err != nil {
		events.emit(ConnectionFailedEvent{Err: db.AsConnectionError(err)})
		close(ready)
		return
	}

	cmds := newQueue[Command]()
	ready <- cmds

	// Both the monitor goroutine and the worker can observe the session's
	// end; the once guarantees a single ConnectionClosedEvent.
	var closeOnce sync.Once
	notifyClosed := func(reason string) {
		closeOnce.Do(func() {
			events.emit(ConnectionClosedEvent{Reason: reason})
		})
	}

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if monitor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reason := monitor.Wait(monitorCtx)
			if monitorCtx.Err() != nil {
				return
			}
			logrus.WithField("reason", reason).Debug("connection terminated")
			notifyClosed(reason)
			cmds.close()
		}()
	}

	requested := processCommands(ctx, adapter, events, cmds)

	cancelMonitor()
	adapter.Disconnect(ctx)
	if requested {
		notifyClosed("")
	}
	wg.Wait()
	cmds.close()
	logrus.Debug("session worker exited")
}

// processCommands executes queued commands one at a time until a
// Disconnect arrives (returns true) or the queue is closed underneath it
// (returns false). Command failures produce events, never an exit.
func processCommands(ctx context.Context, adapter db.Adapter, events *Events, cmds *queue[Command]) bool {
	for cmd := range cmds.out {
		switch c := cmd.(type) {
		case ExecuteCommand:
			res, err := adapter.Execute(ctx, c.SQL, c.Limit)
			if err != nil {
				events.emit(QueryFailedEvent{Message: err.Error()})
				continue
			}
			events.emit(QueryFinishedEvent{Result: res})

		case FetchSchemasCommand:
			schemas, err := adapter.FetchSchemas(ctx)
			if err != nil {
				events.emit(MetadataFailedEvent{Message: fmt.Sprintf("Failed to load schemas: %v", err)})
				continue
			}
			events.emit(SchemasLoadedEvent{Schemas: schemas})

		case FetchTablesCommand:
			tables, err := adapter.FetchTables(ctx, c.Schema)
			if err != nil {
				events.emit(MetadataFailedEvent{Message: fmt.Sprintf("Failed to load tables: %v", err)})
				continue
			}
			events.emit(TablesLoadedEvent{Schema: c.Schema, Tables: tables})

		case FetchColumnsCommand:
			cols, err := adapter.FetchColumns(ctx, c.Schema, c.Table)
			if err != nil {
				events.emit(MetadataFailedEvent{Message: fmt.Sprintf("Failed to load columns: %v", err)})
				continue
			}
			events.emit(ColumnsLoadedEvent{Schema: c.Schema, Table: c.Table, Columns: cols})

		case PreviewTableCommand:
			res, err := adapter.PreviewTable(ctx, c.Schema, c.Table, c.Limit)
			if err != nil {
				events.emit(MetadataFailedEvent{Message: fmt.Sprintf("Failed to preview table: %v", err)})
				continue
			}
			events.emit(TablePreviewReadyEvent{Schema: c.Schema, Table: c.Table, Result: res})

		case DisconnectCommand:
			return true
		}
	}
	return false
}
