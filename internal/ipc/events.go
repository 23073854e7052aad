package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mschulkind/layman/internal/state"
)

// EventKind identifies a decoded compositor notification.
type EventKind string

const (
	EventWindowNew      EventKind = "window:new"
	EventWindowClose    EventKind = "window:close"
	EventWindowFocus    EventKind = "window:focus"
	EventWindowMove     EventKind = "window:move"
	EventWindowFloating EventKind = "window:floating"
	EventWorkspaceInit  EventKind = "workspace:init"
	EventBindingRun     EventKind = "binding:run"
)

// Event is a single compositor notification. Container, Current and Command
// are populated depending on the kind.
type Event struct {
	Kind EventKind
	// Container is the window the event refers to, as embedded in the
	// event payload. It carries no parent links; resolve against a fresh
	// tree before using its position.
	Container *state.Node
	// Current is the workspace for workspace events.
	Current *state.Node
	// Command is the binding command for binding events.
	Command string
}

type windowEventPayload struct {
	Change    string     `json:"change"`
	Container state.Node `json:"container"`
}

type workspaceEventPayload struct {
	Change  string      `json:"change"`
	Current *state.Node `json:"current"`
}

type bindingEventPayload struct {
	Change  string `json:"change"`
	Binding struct {
		Command string `json:"command"`
	} `json:"binding"`
}

// Subscribe opens a dedicated connection, subscribes to window, workspace
// and binding events, and streams decoded events until the context is
// cancelled. Events the daemon does not handle are dropped here so the
// consumer only ever sees the kinds above.
func Subscribe(ctx context.Context, logger *logrus.Entry) (<-chan Event, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal([]string{"window", "workspace", "binding"})
	if err := writeMessage(conn, msgSubscribe, payload); err != nil {
		conn.Close()
		return nil, err
	}
	replyType, reply, err := readMessage(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read subscribe reply: %w", err)
	}
	if replyType != msgSubscribe {
		conn.Close()
		return nil, fmt.Errorf("expected subscribe reply, got type %d", replyType)
	}
	var ack struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(reply, &ack); err != nil || !ack.Success {
		conn.Close()
		return nil, fmt.Errorf("subscribe rejected: %s", reply)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer conn.Close()
		go func() {
			// Unblock the reader on cancellation.
			<-ctx.Done()
			conn.Close()
		}()
		for {
			msgType, payload, err := readMessage(conn)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warnf("event stream error: %v", err)
				}
				return
			}
			ev, ok := decodeEvent(msgType, payload, logger)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func decodeEvent(msgType uint32, payload []byte, logger *logrus.Entry) (Event, bool) {
	if msgType&eventFlag == 0 {
		logger.Debugf("ignoring non-event message type %d on event connection", msgType)
		return Event{}, false
	}
	switch msgType &^ eventFlag {
	case eventWindow:
		var p windowEventPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			logger.Warnf("decode window event: %v", err)
			return Event{}, false
		}
		kind, ok := windowEventKinds[p.Change]
		if !ok {
			return Event{}, false
		}
		container := p.Container
		return Event{Kind: kind, Container: &container}, true
	case eventWorkspace:
		var p workspaceEventPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			logger.Warnf("decode workspace event: %v", err)
			return Event{}, false
		}
		if p.Change != "init" || p.Current == nil {
			return Event{}, false
		}
		return Event{Kind: EventWorkspaceInit, Current: p.Current}, true
	case eventBinding:
		var p bindingEventPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			logger.Warnf("decode binding event: %v", err)
			return Event{}, false
		}
		return Event{Kind: EventBindingRun, Command: p.Binding.Command}, true
	default:
		return Event{}, false
	}
}

var windowEventKinds = map[string]EventKind{
	"new":      EventWindowNew,
	"close":    EventWindowClose,
	"focus":    EventWindowFocus,
	"move":     EventWindowMove,
	"floating": EventWindowFloating,
}
