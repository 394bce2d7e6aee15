// Package dfa provides a small symbol-driven finite automaton with
// per-state action hooks.
package dfa

import "fmt"

// StateID identifies a state.
type StateID int

// Condition is the predicate a transition applies to the input symbol.
type Condition int

const (
	// EQ matches when the input equals the transition symbol.
	EQ Condition = iota
	// NEQ matches when the input differs from the transition symbol.
	NEQ
)

// Action is invoked when the automaton enters a state with an action.
// acc is the accumulator owned by the caller of Step.
type Action[T any] func(state StateID, sym byte, acc *T)

type transition struct {
	sym  byte
	cond Condition
	to   StateID
}

func (t transition) match(sym byte) bool {
	switch t.cond {
	case EQ:
		return sym == t.sym
	case NEQ:
		return sym != t.sym
	}
	return false
}

type state[T any] struct {
	hasAction   bool
	action      Action[T]
	transitions []transition
}

// Machine is the definition of an automaton: states, transitions and
// the start state. It is wired once and never changes while runs step.
type Machine[T any] struct {
	states map[StateID]*state[T]
	start  StateID
}

// NewMachine creates an empty Machine.
func NewMachine[T any]() *Machine[T] {
	return &Machine[T]{states: make(map[StateID]*state[T])}
}

// AddState declares a state. Redeclaring a state replaces its action
// but keeps its transitions.
func (m *Machine[T]) AddState(id StateID, hasAction bool, action Action[T]) *Machine[T] {
	if s, ok := m.states[id]; ok {
		s.hasAction, s.action = hasAction, action
		return m
	}
	m.states[id] = &state[T]{hasAction: hasAction, action: action}
	return m
}

// AddTransition appends a transition to from. Transitions are tried in
// the order they are added.
func (m *Machine[T]) AddTransition(from, to StateID, sym byte, cond Condition) *Machine[T] {
	s, ok := m.states[from]
	if !ok {
		panic(fmt.Sprintf("dfa: transition from undeclared state %d", from))
	}
	if _, ok := m.states[to]; !ok {
		panic(fmt.Sprintf("dfa: transition to undeclared state %d", to))
	}
	s.transitions = append(s.transitions, transition{sym: sym, cond: cond, to: to})
	return m
}

// SetStart sets the state every run starts from.
func (m *Machine[T]) SetStart(id StateID) *Machine[T] {
	m.start = id
	return m
}

// Start returns the start state.
func (m *Machine[T]) Start() StateID {
	return m.start
}

// New creates a run positioned at the start state.
func (m *Machine[T]) New() *Automaton[T] {
	return &Automaton[T]{machine: m, current: m.start}
}

// Automaton is a single run over a Machine.
type Automaton[T any] struct {
	machine *Machine[T]
	current StateID
}

// State returns the current state.
func (a *Automaton[T]) State() StateID {
	return a.current
}

// Reset moves the run back to the start state.
func (a *Automaton[T]) Reset() {
	a.current = a.machine.start
}

// Step consumes one symbol. The first transition of the current state
// whose condition holds moves the run, and the action of the target state
// (if any) is invoked with acc. When nothing matches the state stays and
// no action runs. Step returns the state after the symbol.
func (a *Automaton[T]) Step(sym byte, acc *T) StateID {
	s, ok := a.machine.states[a.current]
	if !ok {
		return a.current
	}
	for _, t := range s.transitions {
		if !t.match(sym) {
			continue
		}
		a.current = t.to
		if target := a.machine.states[t.to]; target.hasAction && target.action != nil {
			target.action(t.to, sym, acc)
		}
		break
	}
	return a.current
}

// Run steps over every symbol of input and returns the final state.
func (a *Automaton[T]) Run(input []byte, acc *T) StateID {
	for _, sym := range input {
		a.Step(sym, acc)
	}
	return a.current
}
