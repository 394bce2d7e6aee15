package cfg

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/Evsless/hab/pkg/cfgtree"
	"github.com/Evsless/hab/pkg/cli/sh"
)

// FormatToken renders a token for display.
func FormatToken(tok cfgtree.Token) string {
	var w strings.Builder
	if tok.Tag == cfgtree.TagUnknown {
		w.WriteString("-")
	} else {
		w.WriteString(tok.Tag.String())
	}
	if tok.Close {
		w.WriteString(" close")
	}
	if tok.HasValue {
		fmt.Fprintf(&w, " value=%q", tok.Value)
	}
	fmt.Fprintf(&w, " code=%s", tok.Code())
	return w.String()
}

// ResolvePath returns the code accumulated along a path of tag names,
// as a depth-first walk would pass it to the last node.
func ResolvePath(names []string) (cfgtree.Code, error) {
	var code cfgtree.Code
	for _, name := range names {
		tag := cfgtree.LookupTag(name)
		if tag == cfgtree.TagUnknown {
			return 0, fmt.Errorf("unknown tag %q", name)
		}
		code = code.With(tag)
	}
	return code, nil
}

var (
	// TokenizeCmd tokenizes a single config line.
	TokenizeCmd = ishell.Cmd{
		Name:    "tokenize",
		Aliases: []string{"tok"},
		Help:    "LINE",
		Func: sh.NeedArgs(1, func(c *ishell.Context) {
			c.Println(FormatToken(cfgtree.Tokenize(strings.Join(c.Args, " "))))
		}),
	}

	// TreeCmd prints the tree built from a config file.
	TreeCmd = ishell.Cmd{
		Name:    "tree",
		Aliases: []string{"t"},
		Help:    "FILE",
		Func: sh.NeedArgs(1, func(c *ishell.Context) {
			root, err := cfgtree.LoadFile(sh.ShellFrom(c).Fs, c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(root.String())
		}),
	}

	// ResolveCmd prints the register code of a tag path.
	ResolveCmd = ishell.Cmd{
		Name:    "resolve",
		Aliases: []string{"res"},
		Help:    "TAG...",
		Func: sh.NeedArgs(1, func(c *ishell.Context) {
			code, err := ResolvePath(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%#x %s\n", uint32(code), code)
		}),
	}
)

func init() {
	sh.AddCmds(
		&TokenizeCmd,
		&TreeCmd,
		&ResolveCmd,
	)
}
