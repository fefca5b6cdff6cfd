package events

import (
	"encoding/json"
	"testing"

	"github.com/danmuck/gatewayctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(n *int) *FuncListener {
	return NewListener(func(string, json.RawMessage) { *n++ })
}

func TestSubscribeIsIdempotent(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	l := counter(&calls)

	r.Subscribe("MESSAGE_CREATE", l)
	r.Subscribe("MESSAGE_CREATE", l)

	assert.Equal(t, 1, r.Count("MESSAGE_CREATE"))
	assert.Equal(t, 1, r.Dispatch("MESSAGE_CREATE", nil))
	assert.Equal(t, 1, calls)
}

func TestSubscribeThenUnsubscribeBeforeDispatch(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	l := counter(&calls)

	r.Subscribe("GUILD_CREATE", l)
	r.Unsubscribe("GUILD_CREATE", l)

	assert.Equal(t, 0, r.Dispatch("GUILD_CREATE", json.RawMessage(`{}`)))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, r.Count("GUILD_CREATE"))
}

func TestUnsubscribeAbsentIsNoop(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	r.Unsubscribe("NOPE", counter(&calls))
	r.Subscribe("A", counter(&calls))
	r.Unsubscribe("A", counter(&calls))
	assert.Equal(t, 1, r.Count("A"))
}

func TestDispatchOnlyMatchingName(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var a, b int
	r.Subscribe("A", counter(&a))
	r.Subscribe("B", counter(&b))

	r.Dispatch("A", nil)
	r.Dispatch("A", nil)

	assert.Equal(t, 2, a)
	assert.Equal(t, 0, b)
}

func TestDispatchPassesNameAndPayload(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var gotName string
	var gotPayload json.RawMessage
	r.Subscribe("READY", NewListener(func(name string, payload json.RawMessage) {
		gotName = name
		gotPayload = payload
	}))
	r.Dispatch("READY", json.RawMessage(`{"session_id":"abc"}`))
	assert.Equal(t, "READY", gotName)
	assert.JSONEq(t, `{"session_id":"abc"}`, string(gotPayload))
}

func TestDispatchSnapshotSelfUnsubscribe(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var order []string

	var first *FuncListener
	first = NewListener(func(string, json.RawMessage) {
		order = append(order, "first")
		r.Unsubscribe("E", first)
	})
	second := NewListener(func(string, json.RawMessage) {
		order = append(order, "second")
	})
	r.Subscribe("E", first)
	r.Subscribe("E", second)

	require.Equal(t, 2, r.Dispatch("E", nil))
	assert.Equal(t, []string{"first", "second"}, order)

	order = nil
	require.Equal(t, 1, r.Dispatch("E", nil))
	assert.Equal(t, []string{"second"}, order)
}

func TestDispatchSnapshotSubscribeDuringDispatch(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var late int
	lateListener := counter(&late)
	adder := NewListener(func(string, json.RawMessage) {
		r.Subscribe("E", lateListener)
	})
	r.Subscribe("E", adder)

	require.Equal(t, 1, r.Dispatch("E", nil))
	assert.Equal(t, 0, late)

	require.Equal(t, 2, r.Dispatch("E", nil))
	assert.Equal(t, 1, late)
}

func TestDispatchSnapshotUnsubscribeOtherDuringDispatch(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var victimCalls int
	victim := counter(&victimCalls)
	remover := NewListener(func(string, json.RawMessage) {
		r.Unsubscribe("E", victim)
	})
	r.Subscribe("E", remover)
	r.Subscribe("E", victim)

	r.Dispatch("E", nil)
	assert.Equal(t, 1, victimCalls, "removal during dispatch must not affect the in-flight call")

	r.Dispatch("E", nil)
	assert.Equal(t, 1, victimCalls)
}

func TestTypedListener(t *testing.T) {
	testlog.Start(t)
	type message struct {
		Content string `json:"content"`
	}
	r := NewRegistry()
	var got []string
	r.Subscribe("MESSAGE_CREATE", Typed(func(m message) {
		got = append(got, m.Content)
	}))

	r.Dispatch("MESSAGE_CREATE", json.RawMessage(`{"content":"hello"}`))
	r.Dispatch("MESSAGE_CREATE", json.RawMessage(`"not an object"`))

	assert.Equal(t, []string{"hello"}, got)
}

type sliceListener struct {
	seen []string
}

func (l sliceListener) HandleEvent(string, json.RawMessage) {}

func TestNonComparableListenerSkipped(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	l := sliceListener{seen: []string{"x"}}

	require.NotPanics(t, func() {
		r.Subscribe("MESSAGE_CREATE", l)
		r.Unsubscribe("MESSAGE_CREATE", l)
	})
	assert.Equal(t, 0, r.Count("MESSAGE_CREATE"))
	assert.Equal(t, 0, r.Dispatch("MESSAGE_CREATE", nil))
}
