// Package basepb implements the binary message contract spoken over the
// base's websocket channel, protocol major version 1.
//
// The schema lives in api.proto. Because it is tiny and frozen per major
// version, the codec is maintained by hand on top of
// google.golang.org/protobuf/encoding/protowire instead of generated code.
package basepb

// MajorVersion is the protocol major version this package implements.
// ApiUp frames reporting a different major version are not understood.
const MajorVersion uint32 = 1

// ReportFrequency selects how often the base emits BaseStatus frames.
type ReportFrequency int32

const (
	ReportFrequencyUnspecified ReportFrequency = 0
	ReportFrequency1Hz         ReportFrequency = 1
	ReportFrequency10Hz        ReportFrequency = 2
	ReportFrequency50Hz        ReportFrequency = 3
	ReportFrequency100Hz       ReportFrequency = 4
)

func (f ReportFrequency) String() string {
	switch f {
	case ReportFrequency1Hz:
		return "1Hz"
	case ReportFrequency10Hz:
		return "10Hz"
	case ReportFrequency50Hz:
		return "50Hz"
	case ReportFrequency100Hz:
		return "100Hz"
	default:
		return "unspecified"
	}
}

// ParkingStopReason explains why the base engaged its parking brake.
type ParkingStopReason int32

const (
	ParkingStopUnspecified ParkingStopReason = 0
	ParkingStopButton      ParkingStopReason = 1
	ParkingStopBumper      ParkingStopReason = 2
	ParkingStopCliff       ParkingStopReason = 3
	ParkingStopLowPower    ParkingStopReason = 4
)

func (r ParkingStopReason) String() string {
	switch r {
	case ParkingStopButton:
		return "stop button pressed"
	case ParkingStopBumper:
		return "bumper triggered"
	case ParkingStopCliff:
		return "cliff detected"
	case ParkingStopLowPower:
		return "low power"
	default:
		return "unspecified"
	}
}

// XyzSpeed carries linear x/y speed in m/s and angular z speed in rad/s.
type XyzSpeed struct {
	SpeedX float32
	SpeedY float32
	SpeedZ float32
}

// BaseStatus is the periodic status report from the base.
// ParkingStopDetail is present exactly while the base is parked/braking.
type BaseStatus struct {
	ApiControlInitialized bool
	SessionHolder         uint32
	ParkingStopDetail     *ParkingStopReason
	EstimatedOdometry     *XyzSpeed
}

// ApiUp is every message the base sends to a client. SessionId is the
// identity the base assigned to this client's channel, repeated per frame.
// BaseStatus is nil for frames that carry no status report.
type ApiUp struct {
	SessionId            uint32
	ProtocolMajorVersion uint32
	Log                  *string
	BaseStatus           *BaseStatus
}

// GetBaseStatus returns the status report, or nil.
func (u *ApiUp) GetBaseStatus() *BaseStatus {
	if u == nil {
		return nil
	}
	return u.BaseStatus
}

// ApiDown is every message a client sends to the base. Exactly one of the
// fields is set (wire oneof).
type ApiDown struct {
	SetReportFrequency *ReportFrequency
	BaseCommand        *BaseCommand
}

// BaseCommand wraps the control commands. Exactly one field is set.
// ApiControlInitialize true acquires API control, false releases it.
type BaseCommand struct {
	ApiControlInitialize *bool
	SimpleMoveCommand    *SimpleBaseMoveCommand
}

// SimpleBaseMoveCommand wraps the velocity-style move command.
type SimpleBaseMoveCommand struct {
	XyzSpeed *XyzSpeed
}
