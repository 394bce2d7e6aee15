package hab

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const unknownMachine = "unknown"

var machineID = machineid.ID

// MachineID retrieves the unique ID identifying the flight computer. It
// returns "unknown" when the system provides none.
func MachineID() string {
	id, err := machineID()
	if err != nil || id == "" {
		glog.Warningf("machine id unavailable: %v", err)
		return unknownMachine
	}
	return id
}
