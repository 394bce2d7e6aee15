package dfa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	stIdle StateID = iota
	stOpen
	stBody
	stDone
)

type trace struct {
	entered []StateID
	syms    []byte
}

func record(state StateID, sym byte, acc *trace) {
	acc.entered = append(acc.entered, state)
	acc.syms = append(acc.syms, sym)
}

func testMachine() *Machine[trace] {
	return NewMachine[trace]().
		AddState(stIdle, false, nil).
		AddState(stOpen, true, record).
		AddState(stBody, true, record).
		AddState(stDone, false, nil).
		AddTransition(stIdle, stOpen, '<', EQ).
		AddTransition(stOpen, stDone, '>', EQ).
		AddTransition(stOpen, stBody, '>', NEQ).
		AddTransition(stBody, stDone, '>', EQ).
		AddTransition(stBody, stBody, '>', NEQ).
		SetStart(stIdle)
}

// fold applies the declared transition table by hand.
func fold(input string) StateID {
	st := stIdle
	for _, c := range []byte(input) {
		switch st {
		case stIdle:
			if c == '<' {
				st = stOpen
			}
		case stOpen:
			if c == '>' {
				st = stDone
			} else {
				st = stBody
			}
		case stBody:
			if c == '>' {
				st = stDone
			}
		}
	}
	return st
}

func TestAutomatonFold(t *testing.T) {
	testCases := []string{
		"",
		"abc",
		"<",
		"<>",
		"<a",
		"<abc>",
		"xx<abc>yy<",
		">>><<<",
	}
	m := testMachine()
	for _, in := range testCases {
		t.Run(in, func(t *testing.T) {
			var acc trace
			a := m.New()
			require.Equal(t, fold(in), a.Run([]byte(in), &acc))
		})
	}
}

func TestAutomatonUnmatchedKeepsState(t *testing.T) {
	var acc trace
	a := testMachine().New()
	require.Equal(t, stIdle, a.Step('x', &acc))
	require.Empty(t, acc.entered)
	require.Equal(t, stOpen, a.Step('<', &acc))
	require.Equal(t, stDone, a.Step('>', &acc))
	// stDone has no transitions.
	require.Equal(t, stDone, a.Step('<', &acc))
	require.Equal(t, []StateID{stOpen}, acc.entered)
}

func TestAutomatonActionsOnEntry(t *testing.T) {
	var acc trace
	a := testMachine().New()
	a.Run([]byte("<ab>"), &acc)
	require.Equal(t, []StateID{stOpen, stBody, stBody}, acc.entered)
	require.Equal(t, []byte("<ab"), acc.syms)
}

func TestAutomatonFirstMatchWins(t *testing.T) {
	m := NewMachine[trace]().
		AddState(0, false, nil).
		AddState(1, true, record).
		AddState(2, true, record).
		AddTransition(0, 1, 'a', NEQ).
		AddTransition(0, 2, 'b', EQ).
		SetStart(0)
	var acc trace
	a := m.New()
	// 'b' != 'a' so the first transition wins even though the second matches too.
	require.Equal(t, StateID(1), a.Step('b', &acc))
}

func TestAutomatonReset(t *testing.T) {
	m := testMachine()
	var acc trace
	a := m.New()
	a.Run([]byte("<a"), &acc)
	require.Equal(t, stBody, a.State())
	a.Reset()
	require.Equal(t, m.Start(), a.State())

	// runs are independent.
	b := m.New()
	a.Step('<', &acc)
	require.Equal(t, stOpen, a.State())
	require.Equal(t, stIdle, b.State())
}

func TestAddTransitionUndeclared(t *testing.T) {
	m := NewMachine[trace]().AddState(0, false, nil)
	require.Panics(t, func() { m.AddTransition(0, 7, 'x', EQ) })
	require.Panics(t, func() { m.AddTransition(7, 0, 'x', EQ) })
}
