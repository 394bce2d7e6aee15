package habdev

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/Evsless/hab/pkg/cfgtree"
)

// GlobalSpec selects a global event and its config file.
type GlobalSpec struct {
	ID     int
	Name   string
	Config string
}

// RegisterGlobal loads the config of a global event. Global events must be
// registered before the devices referring to them.
func (r *Registrar) RegisterGlobal(spec GlobalSpec) (*GlobalEvent, error) {
	g := &GlobalEvent{ID: spec.ID, Name: spec.Name}
	if g.Name == "" {
		g.Name = "global-" + strconv.Itoa(spec.ID)
	}
	fail := func(stage string, err error) error {
		return &RegisterError{Index: spec.ID, Name: g.Name, Stage: stage, Err: err}
	}
	if _, ok := r.Registry.GlobalEvent(spec.ID); ok {
		return nil, fail(StageLoad, fmt.Errorf("%w: global %d", ErrDuplicateIndex, spec.ID))
	}
	root, err := cfgtree.LoadFile(r.Fs, spec.Config)
	if err != nil {
		return nil, fail(StageLoad, err)
	}
	if root.Tag != cfgtree.TagGlobalEvent {
		return nil, fail(StageLoad, fmt.Errorf("%w: root %s", ErrUnknownKind, root.Tag))
	}
	err = root.Walk(0, func(n *cfgtree.Node, code cfgtree.Code) error {
		switch code.Struct() &^ cfgtree.RegGlobalEvent {
		case cfgtree.RoleEvent:
			g.Event = &Event{Name: g.Name}
			if cb := r.Callbacks.global(g.ID); cb != nil {
				g.Event.fire = func(ctx context.Context) error { return cb(ctx, g) }
			}
		case cfgtree.RoleEventTimeout:
			d, err := millis(n.Value)
			if err != nil {
				return err
			}
			g.Event.Timeout = d
		case cfgtree.RoleEventRepeat:
			d, err := millis(n.Value)
			if err != nil {
				return err
			}
			g.Event.Repeat = d
		case cfgtree.RoleGlobalIndex:
			idx, err := strconv.Atoi(n.Value)
			if err != nil {
				return fmt.Errorf("%w: index %q", ErrBadValue, n.Value)
			}
			g.Index = idx
		}
		return nil
	})
	if err != nil {
		return nil, fail(StageCollect, err)
	}
	r.Registry.addGlobal(g)
	glog.Infof("global event %d registered as %s", g.ID, g.Name)
	return g, nil
}
