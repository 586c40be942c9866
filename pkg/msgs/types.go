package msgs

import "fmt"

// Device limits.
const (
	MinFrameRate      = 1
	MaxFrameRate      = 30
	MinDistance       = 0
	MaxDistance       = 10000
	MinAngle          = -55
	MaxAngle          = 55
	MaxCertainty      = 9
	MaxObjectSize     = 4
	MaxMessageLength  = 200
	DefaultMaxPoints  = 64
	DefaultMaxObjects = 16
)

// Record sizes on the wire.
const (
	PointRecordSize  = 9
	ObjectRecordSize = 19
)

// CaptureMode selects the data streamed during capture.
type CaptureMode uint8

// Capture modes.
const (
	ModePointCloud     CaptureMode = 0
	ModeObjectTracking CaptureMode = 1
	ModeRawData        CaptureMode = 2
)

func (m CaptureMode) String() string {
	switch m {
	case ModePointCloud:
		return "POINT_CLOUD"
	case ModeObjectTracking:
		return "OBJECT_TRACKING"
	case ModeRawData:
		return "RAW_DATA"
	}
	return fmt.Sprintf("MODE(%d)", uint8(m))
}

// FrameCommand returns the data frame command expected in this mode.
func (m CaptureMode) FrameCommand() Command {
	switch m {
	case ModePointCloud:
		return CmdPointCloudFrame
	case ModeObjectTracking:
		return CmdObjTrackingFrame
	case ModeRawData:
		return CmdRawData
	}
	return CmdNone
}

// Subframe marks a fragment of a logical data frame.
type Subframe uint8

// Subframe markers.
const (
	SubframeStart  Subframe = 0
	SubframeMiddle Subframe = 1
	SubframeEnd    Subframe = 2
)

func (s Subframe) String() string {
	switch s {
	case SubframeStart:
		return "START"
	case SubframeMiddle:
		return "MIDDLE"
	case SubframeEnd:
		return "END"
	}
	return fmt.Sprintf("SUBFRAME(%d)", uint8(s))
}

// ReturnValue is the outcome embedded in acknowledgements.
type ReturnValue uint8

// Return values.
const (
	ReturnOK      ReturnValue = 0
	ReturnWarning ReturnValue = 1
	ReturnErr     ReturnValue = 2
)

func (r ReturnValue) String() string {
	switch r {
	case ReturnOK:
		return "OK"
	case ReturnWarning:
		return "WARNING"
	case ReturnErr:
		return "ERR"
	}
	return fmt.Sprintf("RETURN(%d)", uint8(r))
}

// MovingFilterMode selects which points the moving filter passes.
type MovingFilterMode uint8

// Moving filter modes.
const (
	MovingBoth        MovingFilterMode = 0
	MovingObjectsOnly MovingFilterMode = 1
)

func (m MovingFilterMode) String() string {
	switch m {
	case MovingBoth:
		return "BOTH"
	case MovingObjectsOnly:
		return "OBJECTS_ONLY"
	}
	return fmt.Sprintf("MOVING(%d)", uint8(m))
}

// Density is the point cloud density level.
type Density uint8

// Density levels.
const (
	DensityNormal    Density = 0
	DensityDense     Density = 1
	DensityVeryDense Density = 2
)

func (d Density) String() string {
	switch d {
	case DensityNormal:
		return "NORMAL"
	case DensityDense:
		return "DENSE"
	case DensityVeryDense:
		return "VERY_DENSE"
	}
	return fmt.Sprintf("DENSITY(%d)", uint8(d))
}

// ResetCode selects the reset kind.
type ResetCode uint8

// Reset codes.
const (
	ResetReboot  ResetCode = 0
	ResetFactory ResetCode = 1
)

func (r ResetCode) String() string {
	switch r {
	case ResetReboot:
		return "REBOOT"
	case ResetFactory:
		return "FACTORY"
	}
	return fmt.Sprintf("RESET(%d)", uint8(r))
}

// MessageType is the severity of a device message.
type MessageType uint8

// Message types.
const (
	MessageTemporary MessageType = 0
	MessageDebug     MessageType = 1
	MessageInfo      MessageType = 2
	MessageWarning   MessageType = 3
	MessageError     MessageType = 4
	MessageSuccess   MessageType = 5
)

func (t MessageType) String() string {
	switch t {
	case MessageTemporary:
		return "TEMPORARY"
	case MessageDebug:
		return "DEBUG"
	case MessageInfo:
		return "INFO"
	case MessageWarning:
		return "WARNING"
	case MessageError:
		return "ERROR"
	case MessageSuccess:
		return "SUCCESS"
	}
	return fmt.Sprintf("TYPE(%d)", uint8(t))
}

// MessageCode classifies a device message.
type MessageCode uint8

// Message codes.
const (
	CodeGeneral          MessageCode = 0
	CodeFrameRateTooHigh MessageCode = 1
	CodeCalibFailed      MessageCode = 2
	CodeIWRCommsTimeout  MessageCode = 3
	CodeInvalidCommand   MessageCode = 100
	CodeInvalidValue     MessageCode = 101
	CodePacketOverflow   MessageCode = 102
)

// Point is one point cloud detection. Coordinates are in millimeters,
// velocity in mm/s.
type Point struct {
	X         int16
	Y         int16
	Z         int16
	Intensity uint8
	Velocity  int16
}

// TrackedObject is one object reported in object tracking mode.
// Positions in mm, velocities in mm/s, accelerations in mm/s².
type TrackedObject struct {
	TargetID uint8
	XPos     int16
	YPos     int16
	ZPos     int16
	XVel     int16
	YVel     int16
	ZVel     int16
	XAcc     int16
	YAcc     int16
	ZAcc     int16
}

// VersionNumber is a firmware/hardware version.
type VersionNumber struct {
	Major uint8
	Minor uint8
	Build uint16
}

func (v VersionNumber) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
}

// IWRVersionNumber is a radar chip image version.
type IWRVersionNumber struct {
	VersionNumber
	Name string
}

// ChipTemperatures are the radar chip temperatures in degrees Celsius.
type ChipTemperatures struct {
	Sensor0         int16
	Sensor1         int16
	PowerManagement int16
	Rx0             int16
	Rx1             int16
	Rx2             int16
	Rx3             int16
	Tx0             int16
	Tx1             int16
	Tx2             int16
}
