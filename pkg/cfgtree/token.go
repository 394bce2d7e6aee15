package cfgtree

import (
	"github.com/Evsless/hab/pkg/dfa"
)

// Token is the result of scanning a single config line.
type Token struct {
	Tag      Tag
	Close    bool
	HasValue bool
	Value    string
}

// Code returns the register code of the token's tag.
func (t Token) Code() Code {
	return Resolve(t.Tag)
}

// scanner states.
const (
	stDefault dfa.StateID = iota
	stPreConf
	stConf
	stConfClose
	stSaveConf
	stVal
	stSaveVal
	stConfRdy
)

type scan struct {
	buf []byte
	tok Token
}

func scanAction(state dfa.StateID, sym byte, s *scan) {
	switch state {
	case stConf, stVal:
		s.buf = append(s.buf, sym)
	case stSaveConf:
		s.tok.Tag = LookupTag(string(s.buf))
		s.buf = s.buf[:0]
	case stSaveVal:
		s.tok.HasValue = true
		s.tok.Value = string(s.buf)
		s.buf = s.buf[:0]
	case stConfClose:
		s.tok.Close = true
	}
}

var lineMachine = dfa.NewMachine[scan]().
	AddState(stDefault, false, nil).
	AddState(stPreConf, false, nil).
	AddState(stConf, true, scanAction).
	AddState(stSaveConf, true, scanAction).
	AddState(stVal, true, scanAction).
	AddState(stSaveVal, true, scanAction).
	AddState(stConfClose, true, scanAction).
	AddState(stConfRdy, false, nil).
	AddTransition(stDefault, stPreConf, '<', dfa.EQ).
	AddTransition(stPreConf, stConf, '/', dfa.NEQ).
	AddTransition(stPreConf, stConfClose, '/', dfa.EQ).
	AddTransition(stConf, stSaveConf, '>', dfa.EQ).
	AddTransition(stConf, stConf, '>', dfa.NEQ).
	AddTransition(stSaveConf, stVal, '\n', dfa.NEQ).
	AddTransition(stSaveConf, stConfRdy, '\n', dfa.EQ).
	AddTransition(stVal, stSaveVal, '<', dfa.EQ).
	AddTransition(stVal, stVal, '<', dfa.NEQ).
	AddTransition(stSaveVal, stConfClose, '/', dfa.EQ).
	AddTransition(stConfClose, stConf, '>', dfa.NEQ).
	AddTransition(stConfClose, stConfRdy, '\n', dfa.EQ).
	SetStart(stDefault)

// Tokenize scans one config line. Every call starts from a clean
// scanner so nothing leaks between lines and calls may run concurrently.
func Tokenize(line string) Token {
	var s scan
	run := lineMachine.New()
	for i := 0; i < len(line); i++ {
		run.Step(line[i], &s)
	}
	return s.tok
}
