package protocol

import "fmt"

// VC is a virtual channel index inside a protocol engine. Higher channels
// have strict priority over lower ones.
type VC int

// The engine virtual channels. The two local channels carry CPU traffic;
// VC0 to VC2 carry network traffic.
const (
	LocalVC0 VC = iota
	LocalVC1
	VC0
	VC1
	VC2

	MinVC = LocalVC0
	MaxVC = VC2

	// NumVCs is the number of engine virtual channels.
	NumVCs = int(MaxVC) + 1

	// NumNetworkVCs is the number of virtual channels of the network.
	NumNetworkVCs = int(MaxVC-VC0) + 1
)

// Valid returns true if the channel exists.
func (vc VC) Valid() bool {
	return vc >= MinVC && vc <= MaxVC
}

// IsNetwork returns true for the channels fed by the network.
func (vc VC) IsNetwork() bool {
	return vc >= VC0 && vc <= MaxVC
}

// NetworkIndex converts an engine channel into the network channel number.
func (vc VC) NetworkIndex() int {
	if !vc.IsNetwork() {
		panic(fmt.Sprintf("%s is not a network channel", vc))
	}

	return int(vc - VC0)
}

// NetworkVC converts a network channel number into the engine channel.
func NetworkVC(index int) VC {
	vc := VC0 + VC(index)
	if !vc.IsNetwork() {
		panic(fmt.Sprintf("network channel %d does not exist", index))
	}

	return vc
}

func (vc VC) String() string {
	switch vc {
	case LocalVC0:
		return "LocalVC0"
	case LocalVC1:
		return "LocalVC1"
	}

	if vc.IsNetwork() {
		return fmt.Sprintf("VC%d", vc.NetworkIndex())
	}

	return fmt.Sprintf("VC(%d)", int(vc))
}
