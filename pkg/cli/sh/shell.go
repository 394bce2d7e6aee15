package sh

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/spf13/afero"

	"github.com/Evsless/hab/pkg/hab"
	"github.com/Evsless/hab/pkg/habdev"
	"github.com/Evsless/hab/pkg/iio"
)

// Shell provides ishell backed interactive shell to inspect device
// configs and buffers on the ground.
type Shell struct {
	Interactive bool

	Shell     *ishell.Shell
	Config    *hab.Config
	Fs        afero.Fs
	Registrar *habdev.Registrar
}

const (
	shellKey = "$shell"
	prompt   = "hab > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&RegisterCmd,
		&DevicesCmd,
		&TriggerCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell working on fs with the roots of conf.
func New(conf *hab.Config, fs afero.Fs) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
		Fs:          fs,
		Registrar: &habdev.Registrar{
			Fs:          fs,
			Paths:       conf.Paths(),
			StorageRoot: conf.StorageRoot,
			Registry:    habdev.NewRegistry(),
			Triggers:    make(iio.Triggers),
		},
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// NeedArgs wraps command func requiring at least n arguments.
func NeedArgs(n int, fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) < n {
			c.Err(fmt.Errorf("%d arguments required", n))
			return
		}
		fn(c)
	}
}

// FormatDevice prints a registered device into friendly string for display.
func FormatDevice(dev *habdev.Device) string {
	var w strings.Builder
	fmt.Fprintf(&w, "%d %s (%s)", dev.Index, dev.Name, dev.Kind)
	if len(dev.Channels) > 0 {
		fmt.Fprintf(&w, " channels=%s", strings.Join(dev.Channels, ","))
	}
	if len(dev.ScanElements) > 0 {
		fmt.Fprintf(&w, " scan=%s widths=%v", strings.Join(dev.ScanElements, ","), dev.Format.Widths)
	}
	if dev.Trigger != nil {
		fmt.Fprintf(&w, " trigger=%s", dev.Trigger.Name)
	}
	if ev := dev.Event; ev != nil {
		fmt.Fprintf(&w, " event=%v/%v", ev.Timeout, ev.Repeat)
	}
	for _, id := range dev.GlobalRefs {
		fmt.Fprintf(&w, " global=%d", id)
	}
	if dev.Still != "" {
		fmt.Fprintf(&w, " still=%q", dev.Still)
	}
	if dev.Video != "" {
		fmt.Fprintf(&w, " video=%q", dev.Video)
	}
	return w.String()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// RegisterCmd registers a device against the configured roots.
	RegisterCmd = ishell.Cmd{
		Name:    "register",
		Aliases: []string{"reg"},
		Help:    "INDEX CONFIG [TRIGGER]",
		Func: NeedArgs(2, func(c *ishell.Context) {
			s := ShellFrom(c)
			index, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid INDEX: %v", err))
				return
			}
			spec := habdev.DeviceSpec{Index: index, Config: c.Args[1], Trigger: -1}
			if len(c.Args) > 2 {
				if c.Args[2] == "irq" {
					spec.IRQTrigger = true
				} else if spec.Trigger, err = strconv.Atoi(c.Args[2]); err != nil {
					c.Err(fmt.Errorf("invalid TRIGGER: %v", err))
					return
				}
			}
			dev, err := s.Registrar.Register(spec)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(FormatDevice(dev))
		}),
	}

	// DevicesCmd lists the devices registered in this session.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			devs := ShellFrom(c).Registrar.Registry.Devices()
			if len(devs) == 0 {
				c.Println("No devices registered")
				return
			}
			for _, dev := range devs {
				c.Println(FormatDevice(dev))
			}
		},
	}

	// TriggerCmd creates a hrtimer trigger.
	TriggerCmd = ishell.Cmd{
		Name:    "trigger",
		Aliases: []string{"trig"},
		Help:    "INDEX PERIOD(ms)",
		Func: NeedArgs(2, func(c *ishell.Context) {
			s := ShellFrom(c)
			index, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid INDEX: %v", err))
				return
			}
			ms, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("invalid PERIOD: %v", err))
				return
			}
			trig, err := iio.RegisterHRTimer(s.Fs, s.Config.Paths(), index, time.Duration(ms)*time.Millisecond)
			if err != nil {
				c.Err(err)
				return
			}
			s.Registrar.Triggers.Add(trig)
			c.Printf("%s trigger%d %gHz\n", trig.Name, trig.Index, trig.Frequency())
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(hab.NewConfig(), afero.NewOsFs()).Run(flag.Args()...)
}
