package habdev

import (
	"sort"
	"strconv"

	"github.com/Evsless/hab/pkg/cfgtree"
	"github.com/Evsless/hab/pkg/iio"
)

// Kind classifies a device by the root tag of its config.
type Kind int

// Device kinds.
const (
	KindUnknown Kind = iota
	KindIIO
	KindIIOBuffered
	KindCamera
	KindDefault
)

var kindNames = map[Kind]string{
	KindIIO:         "iio",
	KindIIOBuffered: "iio_buff",
	KindCamera:      "camera",
	KindDefault:     "default",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// KindOf classifies a config root tag.
func KindOf(t cfgtree.Tag) Kind {
	switch t {
	case cfgtree.TagIIODev:
		return KindIIO
	case cfgtree.TagIIOBuffDev:
		return KindIIOBuffered
	case cfgtree.TagCameraDev:
		return KindCamera
	case cfgtree.TagDefaultDev:
		return KindDefault
	}
	return KindUnknown
}

// IsIIO tells whether the device is driven through IIO sysfs.
func (k Kind) IsIIO() bool {
	return k == KindIIO || k == KindIIOBuffered
}

// Device is a registered device. It is created once by a Registrar and
// only read afterwards.
type Device struct {
	ID    int
	Index int
	Kind  Kind
	Name  string
	// Dir is the sysfs directory of IIO devices, empty otherwise.
	Dir         string
	BufferPaths []string
	LogPath     string
	Trigger     *iio.Trigger
	// Channels lists the directly read channel attributes.
	Channels []string
	// ScanElements lists the buffered channels in scan order.
	ScanElements []string
	Format       iio.Format
	Event        *Event
	// Still and Video hold the capture commands of a camera.
	Still string
	Video string
	// GlobalRefs lists the global events measuring this device.
	GlobalRefs []int
}

// BufferCount returns the number of buffers of the device.
func (d *Device) BufferCount() int {
	return len(d.BufferPaths)
}

// GlobalEvent is a timer event not owned by a device. Devices join it
// through global_ev_ref entries in their configs.
type GlobalEvent struct {
	ID       int
	Index    int
	Name     string
	Event    *Event
	Measured []int
}

// Registry holds the registered devices and global events by index.
type Registry struct {
	devices map[int]*Device
	globals map[int]*GlobalEvent
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[int]*Device),
		globals: make(map[int]*GlobalEvent),
	}
}

func (r *Registry) addDevice(d *Device) {
	d.ID = len(r.devices)
	r.devices[d.Index] = d
}

func (r *Registry) addGlobal(g *GlobalEvent) {
	r.globals[g.ID] = g
}

// Device returns the device at index.
func (r *Registry) Device(index int) (*Device, bool) {
	d, ok := r.devices[index]
	return d, ok
}

// Devices returns all devices ordered by index.
func (r *Registry) Devices() []*Device {
	list := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	return list
}

// GlobalEvent returns the global event with id.
func (r *Registry) GlobalEvent(id int) (*GlobalEvent, bool) {
	g, ok := r.globals[id]
	return g, ok
}

// GlobalEvents returns all global events ordered by id.
func (r *Registry) GlobalEvents() []*GlobalEvent {
	list := make([]*GlobalEvent, 0, len(r.globals))
	for _, g := range r.globals {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
