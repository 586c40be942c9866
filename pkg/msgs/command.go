package msgs

import "fmt"

// Command identifies the kind of a frame.
type Command int

// Commands. NONE, ERROR and UNKNOWN are host side classifications and
// never appear on the wire.
const (
	CmdNone             Command = -99
	CmdError            Command = -2
	CmdUnknown          Command = -1
	CmdMessage          Command = 0x00
	CmdVersion          Command = 0x01
	CmdSerial           Command = 0x02
	CmdReset            Command = 0x03
	CmdFrameRate        Command = 0x04
	CmdMode             Command = 0x05
	CmdDistanceFilter   Command = 0x06
	CmdAngleFilter      Command = 0x07
	CmdMovingFilter     Command = 0x08
	CmdSave             Command = 0x09
	CmdPointDensity     Command = 0x10
	CmdCertainty        Command = 0x11
	CmdHeightFilter     Command = 0x12
	CmdIWRVersion       Command = 0x14
	CmdSceneCalibrate   Command = 0x15
	CmdObjectSize       Command = 0x16
	CmdCaptureStart     Command = 0x64
	CmdCaptureStop      Command = 0x65
	CmdPointCloudFrame  Command = 0x66
	CmdObjTrackingFrame Command = 0x67
	CmdProcessingStats  Command = 0x68
	CmdRawData          Command = 0x69
	CmdPointCloudStats  Command = 0x70
	CmdPowerStatus      Command = 0x71
)

var commandNames = map[Command]string{
	CmdNone:             "NONE",
	CmdError:            "ERROR",
	CmdUnknown:          "UNKNOWN",
	CmdMessage:          "MESSAGE",
	CmdVersion:          "VERSION",
	CmdSerial:           "SERIAL",
	CmdReset:            "RESET",
	CmdFrameRate:        "FRAME_RATE",
	CmdMode:             "MODE",
	CmdDistanceFilter:   "DIST_FILT",
	CmdAngleFilter:      "ANGLE_FILT",
	CmdMovingFilter:     "MOVING_FILT",
	CmdSave:             "SAVE",
	CmdPointDensity:     "PNT_DENSITY",
	CmdCertainty:        "CERTAINTY",
	CmdHeightFilter:     "HEIGHT_FILT",
	CmdIWRVersion:       "IWR_VERSION",
	CmdSceneCalibrate:   "SCENE_CALIB",
	CmdObjectSize:       "OBJECT_SIZE",
	CmdCaptureStart:     "CAPTURE_START",
	CmdCaptureStop:      "CAPTURE_STOP",
	CmdPointCloudFrame:  "PNT_CLOUD_FRAME",
	CmdObjTrackingFrame: "OBJ_TRACKING_FRAME",
	CmdProcessingStats:  "PROC_STATS",
	CmdRawData:          "RAW_DATA",
	CmdPointCloudStats:  "POINTCLOUD_STATS",
	CmdPowerStatus:      "POWER_STATUS",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CMD(0x%02x)", int(c))
}

// IsWire returns true for commands which are sent over the wire.
func (c Command) IsWire() bool {
	_, ok := commandNames[c]
	return ok && c >= 0
}

// Byte returns the wire representation.
func (c Command) Byte() byte {
	return byte(c)
}

// CommandFromByte maps a wire byte to a Command, CmdUnknown if not defined.
func CommandFromByte(b byte) Command {
	if c := Command(b); c.IsWire() {
		return c
	}
	return CmdUnknown
}

// IsDataFrame returns true for the commands streamed during capture.
func (c Command) IsDataFrame() bool {
	return c == CmdPointCloudFrame || c == CmdObjTrackingFrame || c == CmdRawData
}

// IsSetting returns true for the configuration commands with a SET variant.
func (c Command) IsSetting() bool {
	switch c {
	case CmdFrameRate, CmdMode, CmdDistanceFilter, CmdAngleFilter, CmdMovingFilter,
		CmdPointDensity, CmdCertainty, CmdHeightFilter, CmdObjectSize:
		return true
	}
	return false
}
