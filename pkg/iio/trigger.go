package iio

import (
	"bufio"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/afero"
)

// TriggerKind tells how a trigger fires.
type TriggerKind int

// Trigger kinds.
const (
	HRTimer TriggerKind = iota
	IRQ
)

// String implements fmt.Stringer.
func (k TriggerKind) String() string {
	switch k {
	case HRTimer:
		return "hrtimer"
	case IRQ:
		return "irq"
	}
	return "TriggerKind(" + strconv.Itoa(int(k)) + ")"
}

const (
	hrTimerPrefix = "habtrig-"
	irqPrefix     = "irqtrig-"
)

// Trigger is an IIO trigger a buffered device samples on.
type Trigger struct {
	// Index is the N of the sysfs triggerN directory.
	Index  int
	Name   string
	Kind   TriggerKind
	Period time.Duration
}

// Frequency returns the sampling frequency of a periodic trigger in Hz.
func (t *Trigger) Frequency() float64 {
	if t.Period <= 0 {
		return 0
	}
	return float64(time.Second) / float64(t.Period)
}

// RegisterHRTimer creates a high resolution timer trigger firing every
// period and sets its sampling frequency. index is the number the kernel
// assigns to the new trigger in sysfs.
func RegisterHRTimer(fs afero.Fs, paths Paths, index int, period time.Duration) (*Trigger, error) {
	ms := period.Milliseconds()
	if ms <= 0 {
		return nil, fmt.Errorf("hrtimer trigger %d: period %v must be at least 1ms", index, period)
	}
	trig := &Trigger{
		Index:  index,
		Name:   hrTimerPrefix + strconv.FormatInt(ms, 10),
		Kind:   HRTimer,
		Period: time.Duration(ms) * time.Millisecond,
	}
	dir := paths.HRTimerDir(trig.Name)
	if err := fs.Mkdir(dir, 0775); err != nil && !errors.Is(err, iofs.ErrExist) {
		return nil, &AttrError{Op: "mkdir", Path: dir, Err: err}
	}
	freq := strconv.FormatFloat(trig.Frequency(), 'f', 6, 64)
	if err := WriteAttr(fs, filepath.Join(paths.TriggerDir(index), "sampling_frequency"), freq); err != nil {
		return nil, err
	}
	glog.Infof("trigger %s registered as trigger%d at %sHz", trig.Name, index, freq)
	return trig, nil
}

// RemoveHRTimer deletes the configfs entry of a hrtimer trigger.
func RemoveHRTimer(fs afero.Fs, paths Paths, trig *Trigger) error {
	if trig.Kind != HRTimer {
		return nil
	}
	dir := paths.HRTimerDir(trig.Name)
	if err := fs.Remove(dir); err != nil {
		return &AttrError{Op: "remove", Path: dir, Err: err}
	}
	return nil
}

// FindIRQTrigger looks devName up in the interrupt list and returns the
// trigger bound to its interrupt line.
func FindIRQTrigger(fs afero.Fs, paths Paths, devName string) (*Trigger, error) {
	f, err := fs.Open(paths.Interrupts)
	if err != nil {
		return nil, &AttrError{Op: "open", Path: paths.Interrupts, Err: err}
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}
		for _, w := range words {
			if w != devName {
				continue
			}
			irq := strings.TrimSuffix(words[0], ":")
			return &Trigger{Index: -1, Name: irqPrefix + irq, Kind: IRQ}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &AttrError{Op: "read", Path: paths.Interrupts, Err: err}
	}
	return nil, fmt.Errorf("%w: no interrupt for %s", ErrTriggerNotFound, devName)
}

// Triggers holds the registered triggers by index.
type Triggers map[int]*Trigger

// Add registers trig under its index, replacing any previous entry.
func (t Triggers) Add(trig *Trigger) {
	t[trig.Index] = trig
}

// Get returns the trigger at index.
func (t Triggers) Get(index int) (*Trigger, bool) {
	trig, ok := t[index]
	return trig, ok
}

// Sorted returns the triggers ordered by index.
func (t Triggers) Sorted() []*Trigger {
	list := make([]*Trigger, 0, len(t))
	for _, trig := range t {
		list = append(list, trig)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	return list
}
