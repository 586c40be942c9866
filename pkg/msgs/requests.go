package msgs

import (
	"encoding/binary"
	"fmt"

	"github.com/robotalks/radariq.go/pkg/comm"
)

// Request is an outbound command.
type Request interface {
	Command() Command
	Variant() comm.Variant
	Payload() []byte
	// Validate checks the values locally before anything is sent.
	Validate() error
}

// NewFrame validates the request and builds the frame.
func NewFrame(r Request) (comm.Frame, error) {
	if err := r.Validate(); err != nil {
		return comm.Frame{}, err
	}
	return comm.Frame{
		Command: r.Command().Byte(),
		Variant: r.Variant(),
		Payload: r.Payload(),
	}, nil
}

// Get requests the current value of a setting or device info.
type Get struct {
	Cmd Command
}

// Command implements Request.
func (r Get) Command() Command { return r.Cmd }

// Variant implements Request.
func (r Get) Variant() comm.Variant { return comm.VariantRequest }

// Payload implements Request.
func (r Get) Payload() []byte { return nil }

// Validate implements Request.
func (r Get) Validate() error {
	switch r.Cmd {
	case CmdVersion, CmdSerial, CmdFrameRate, CmdMode, CmdDistanceFilter,
		CmdAngleFilter, CmdMovingFilter, CmdPointDensity, CmdCertainty,
		CmdHeightFilter, CmdIWRVersion, CmdObjectSize:
		return nil
	}
	return fmt.Errorf("%s: %w", r.Cmd, ErrNotQueryable)
}

type setter struct{}

func (setter) Variant() comm.Variant { return comm.VariantSet }

// SetFrameRate sets the capture frame rate in frames per second.
type SetFrameRate struct {
	setter
	Rate uint8
}

// Command implements Request.
func (r SetFrameRate) Command() Command { return CmdFrameRate }

// Payload implements Request.
func (r SetFrameRate) Payload() []byte { return []byte{r.Rate} }

// Validate implements Request.
func (r SetFrameRate) Validate() error {
	return checkRange("frame rate", int(r.Rate), MinFrameRate, MaxFrameRate)
}

// SetMode sets the capture mode.
type SetMode struct {
	setter
	Mode CaptureMode
}

// Command implements Request.
func (r SetMode) Command() Command { return CmdMode }

// Payload implements Request.
func (r SetMode) Payload() []byte { return []byte{byte(r.Mode)} }

// Validate implements Request.
func (r SetMode) Validate() error {
	return checkRange("capture mode", int(r.Mode), int(ModePointCloud), int(ModeRawData))
}

// SetDistanceFilter sets the distance filter in millimeters.
type SetDistanceFilter struct {
	setter
	Min uint16
	Max uint16
}

// Command implements Request.
func (r SetDistanceFilter) Command() Command { return CmdDistanceFilter }

// Payload implements Request.
func (r SetDistanceFilter) Payload() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b, r.Min)
	binary.LittleEndian.PutUint16(b[2:], r.Max)
	return b
}

// Validate implements Request.
func (r SetDistanceFilter) Validate() error {
	if err := checkRange("distance filter min", int(r.Min), MinDistance, MaxDistance); err != nil {
		return err
	}
	if err := checkRange("distance filter max", int(r.Max), MinDistance, MaxDistance); err != nil {
		return err
	}
	return checkOrder("distance filter", int(r.Min), int(r.Max))
}

// SetAngleFilter sets the angle filter in degrees.
type SetAngleFilter struct {
	setter
	Min int8
	Max int8
}

// Command implements Request.
func (r SetAngleFilter) Command() Command { return CmdAngleFilter }

// Payload implements Request.
func (r SetAngleFilter) Payload() []byte { return []byte{byte(r.Min), byte(r.Max)} }

// Validate implements Request.
func (r SetAngleFilter) Validate() error {
	if err := checkRange("angle filter min", int(r.Min), MinAngle, MaxAngle); err != nil {
		return err
	}
	if err := checkRange("angle filter max", int(r.Max), MinAngle, MaxAngle); err != nil {
		return err
	}
	return checkOrder("angle filter", int(r.Min), int(r.Max))
}

// SetMovingFilter sets the moving filter mode.
type SetMovingFilter struct {
	setter
	Mode MovingFilterMode
}

// Command implements Request.
func (r SetMovingFilter) Command() Command { return CmdMovingFilter }

// Payload implements Request.
func (r SetMovingFilter) Payload() []byte { return []byte{byte(r.Mode)} }

// Validate implements Request.
func (r SetMovingFilter) Validate() error {
	return checkRange("moving filter", int(r.Mode), int(MovingBoth), int(MovingObjectsOnly))
}

// SetPointDensity sets the point cloud density.
type SetPointDensity struct {
	setter
	Density Density
}

// Command implements Request.
func (r SetPointDensity) Command() Command { return CmdPointDensity }

// Payload implements Request.
func (r SetPointDensity) Payload() []byte { return []byte{byte(r.Density)} }

// Validate implements Request.
func (r SetPointDensity) Validate() error {
	return checkRange("point density", int(r.Density), int(DensityNormal), int(DensityVeryDense))
}

// SetCertainty sets the detection certainty threshold.
type SetCertainty struct {
	setter
	Level uint8
}

// Command implements Request.
func (r SetCertainty) Command() Command { return CmdCertainty }

// Payload implements Request.
func (r SetCertainty) Payload() []byte { return []byte{r.Level} }

// Validate implements Request.
func (r SetCertainty) Validate() error {
	return checkRange("certainty", int(r.Level), 0, MaxCertainty)
}

// SetHeightFilter sets the height filter in millimeters.
type SetHeightFilter struct {
	setter
	Min int16
	Max int16
}

// Command implements Request.
func (r SetHeightFilter) Command() Command { return CmdHeightFilter }

// Payload implements Request.
func (r SetHeightFilter) Payload() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b, uint16(r.Min))
	binary.LittleEndian.PutUint16(b[2:], uint16(r.Max))
	return b
}

// Validate implements Request.
func (r SetHeightFilter) Validate() error {
	return checkOrder("height filter", int(r.Min), int(r.Max))
}

// SetObjectSize sets the target object size for tracking.
type SetObjectSize struct {
	setter
	Size uint8
}

// Command implements Request.
func (r SetObjectSize) Command() Command { return CmdObjectSize }

// Payload implements Request.
func (r SetObjectSize) Payload() []byte { return []byte{r.Size} }

// Validate implements Request.
func (r SetObjectSize) Validate() error {
	return checkRange("object size", int(r.Size), 0, MaxObjectSize)
}

// Reset reboots the device or restores factory settings.
type Reset struct {
	setter
	Code ResetCode
}

// Command implements Request.
func (r Reset) Command() Command { return CmdReset }

// Payload implements Request.
func (r Reset) Payload() []byte { return []byte{byte(r.Code)} }

// Validate implements Request.
func (r Reset) Validate() error {
	return checkRange("reset code", int(r.Code), int(ResetReboot), int(ResetFactory))
}

// SceneCalibrate starts scene calibration.
type SceneCalibrate struct {
	setter
}

// Command implements Request.
func (r SceneCalibrate) Command() Command { return CmdSceneCalibrate }

// Payload implements Request.
func (r SceneCalibrate) Payload() []byte { return nil }

// Validate implements Request.
func (r SceneCalibrate) Validate() error { return nil }

type requester struct{}

func (requester) Variant() comm.Variant { return comm.VariantRequest }

// Save saves the current settings to the device EEPROM.
type Save struct {
	requester
}

// Command implements Request.
func (r Save) Command() Command { return CmdSave }

// Payload implements Request.
func (r Save) Payload() []byte { return nil }

// Validate implements Request.
func (r Save) Validate() error { return nil }

// CaptureStart starts streaming data frames. NumFrames 0 means continuous.
type CaptureStart struct {
	requester
	NumFrames uint8
}

// Command implements Request.
func (r CaptureStart) Command() Command { return CmdCaptureStart }

// Payload implements Request.
func (r CaptureStart) Payload() []byte { return []byte{r.NumFrames} }

// Validate implements Request.
func (r CaptureStart) Validate() error { return nil }

// CaptureStop stops streaming.
type CaptureStop struct {
	requester
}

// Command implements Request.
func (r CaptureStop) Command() Command { return CmdCaptureStop }

// Payload implements Request.
func (r CaptureStop) Payload() []byte { return nil }

// Validate implements Request.
func (r CaptureStop) Validate() error { return nil }
