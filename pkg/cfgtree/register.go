package cfgtree

import (
	"fmt"
	"strings"
)

// Tag identifies the semantic role of a config line.
type Tag int

// Tags, in the order of the name table.
const (
	TagUnknown Tag = iota
	TagIIODev
	TagIIOBuffDev
	TagCameraDev
	TagDefaultDev
	TagGlobalEvent
	TagIndex
	TagBuffer
	TagChannels
	TagCamera
	TagStill
	TagVideo
	TagChannel
	TagName
	TagValue
	TagBufferLen
	TagEnable
	TagEvent
	TagTimeout
	TagRepeat
	TagGlobalRef

	tagCount
)

var tagNames = [tagCount]string{
	TagUnknown:     "",
	TagIIODev:      "iio_dev",
	TagIIOBuffDev:  "iio_buff_dev",
	TagCameraDev:   "camera_dev",
	TagDefaultDev:  "default_dev",
	TagGlobalEvent: "ev_global",
	TagIndex:       "index",
	TagBuffer:      "buff",
	TagChannels:    "channels",
	TagCamera:      "cam",
	TagStill:       "still",
	TagVideo:       "vid",
	TagChannel:     "chan",
	TagName:        "name",
	TagValue:       "val",
	TagBufferLen:   "buff_len",
	TagEnable:      "enable",
	TagEvent:       "event",
	TagTimeout:     "tim_to",
	TagRepeat:      "tim_rep",
	TagGlobalRef:   "global_ev_ref",
}

var tagByName = func() map[string]Tag {
	m := make(map[string]Tag, tagCount)
	for t := TagUnknown + 1; t < tagCount; t++ {
		m[tagNames[t]] = t
	}
	return m
}()

// LookupTag resolves a tag name. Unknown names resolve to TagUnknown.
func LookupTag(name string) Tag {
	return tagByName[name]
}

// Tags returns every declared tag except TagUnknown.
func Tags() []Tag {
	tags := make([]Tag, 0, tagCount-1)
	for t := TagUnknown + 1; t < tagCount; t++ {
		tags = append(tags, t)
	}
	return tags
}

// String implements fmt.Stringer.
func (t Tag) String() string {
	if t > TagUnknown && t < tagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// Code is the register role of a tag. The low 16 bits are structural
// flags, bits 16-19 hold the device type.
type Code uint32

// Structural flags.
const (
	RegValue Code = 1 << iota
	RegName
	RegSingleChan
	RegChannels
	RegBuffer
	RegLength
	RegEnable
	RegEvent
	RegTimeout
	RegRepeat
	RegGlobalEvent
	RegIndex
	RegGlobalRef
	RegCommand
	RegStill
	RegVideo
)

// Device types. These are values of a field, not flags.
const (
	DevTypeIIO      Code = 0x1 << 16
	DevTypeIIOBuff  Code = 0x2 << 16
	DevTypeCamera   Code = 0x3 << 16
	DevTypeDefault  Code = 0x4 << 16
	DevTypeMask     Code = 0xf << 16
	StructMask      Code = 0xffff
	devTypeShift         = 16
	structFlagCount      = 16
)

// Composite roles dispatched by device registration.
const (
	RoleBuffer          = RegBuffer
	RoleBufferChanName  = RegBuffer | RegChannels | RegSingleChan | RegName
	RoleBufferChanValue = RegBuffer | RegChannels | RegSingleChan | RegValue
	RoleBufferLength    = RegBuffer | RegLength | RegValue
	RoleBufferEnable    = RegBuffer | RegEnable | RegValue
	RoleChanName        = RegChannels | RegSingleChan | RegName
	RoleChanValue       = RegChannels | RegSingleChan | RegValue
	RoleEvent           = RegEvent
	RoleEventTimeout    = RegEvent | RegTimeout | RegValue
	RoleEventRepeat     = RegEvent | RegRepeat | RegValue
	RoleGlobalRef       = RegGlobalRef | RegValue
	RoleGlobalIndex     = RegIndex | RegValue
	RoleCamStill        = RegCommand | RegStill | RegValue
	RoleCamVideo        = RegCommand | RegVideo | RegValue
)

var registers = [tagCount]Code{
	TagUnknown:     0,
	TagIIODev:      DevTypeIIO,
	TagIIOBuffDev:  DevTypeIIOBuff,
	TagCameraDev:   DevTypeCamera,
	TagDefaultDev:  DevTypeDefault,
	TagGlobalEvent: RegGlobalEvent,
	TagIndex:       RegIndex,
	TagBuffer:      RegBuffer,
	TagChannels:    RegChannels,
	TagCamera:      RegCommand,
	TagStill:       RegStill,
	TagVideo:       RegVideo,
	TagChannel:     RegSingleChan,
	TagName:        RegName,
	TagValue:       RegValue,
	TagBufferLen:   RegLength,
	TagEnable:      RegEnable,
	TagEvent:       RegEvent,
	TagTimeout:     RegTimeout,
	TagRepeat:      RegRepeat,
	TagGlobalRef:   RegGlobalRef,
}

// Resolve maps a tag to its register code.
func Resolve(t Tag) Code {
	if t < TagUnknown || t >= tagCount {
		return 0
	}
	return registers[t]
}

// With ORs the code of t into c. Used while descending a tree so the
// device type of the root stays visible at any depth.
func (c Code) With(t Tag) Code {
	return c | Resolve(t)
}

// Struct returns the structural flags of c.
func (c Code) Struct() Code {
	return c & StructMask
}

// DevType returns the device type field of c.
func (c Code) DevType() Code {
	return c & DevTypeMask
}

var flagNames = [structFlagCount]string{
	"val", "name", "schan", "chan", "buff", "len", "enable", "event",
	"tim_to", "tim_rep", "ev_global", "index", "ev_ref", "cmd", "still", "vid",
}

var devTypeNames = map[Code]string{
	DevTypeIIO:     "iio",
	DevTypeIIOBuff: "iio_buff",
	DevTypeCamera:  "camera",
	DevTypeDefault: "default",
}

// String renders c as the device type followed by the set flags,
// highest flag first.
func (c Code) String() string {
	var parts []string
	if dt := c.DevType(); dt != 0 {
		if name, ok := devTypeNames[dt]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("devtype(%d)", dt>>devTypeShift))
		}
	}
	for i := structFlagCount - 1; i >= 0; i-- {
		if c&(1<<uint(i)) != 0 {
			parts = append(parts, flagNames[i])
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}
