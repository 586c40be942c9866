package radar

import (
	"fmt"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Range is an inclusive [Min, Max] filter.
type Range[T ~int8 | ~int16 | ~uint16] struct {
	Min T
	Max T
}

// Field identifies a configuration value.
type Field int

// Configuration fields.
const (
	FieldFrameRate Field = iota
	FieldMode
	FieldDistanceFilter
	FieldAngleFilter
	FieldMovingFilter
	FieldPointDensity
	FieldCertainty
	FieldHeightFilter
	FieldObjectSize
	numFields
)

var fieldCommands = [numFields]msgs.Command{
	FieldFrameRate:      msgs.CmdFrameRate,
	FieldMode:           msgs.CmdMode,
	FieldDistanceFilter: msgs.CmdDistanceFilter,
	FieldAngleFilter:    msgs.CmdAngleFilter,
	FieldMovingFilter:   msgs.CmdMovingFilter,
	FieldPointDensity:   msgs.CmdPointDensity,
	FieldCertainty:      msgs.CmdCertainty,
	FieldHeightFilter:   msgs.CmdHeightFilter,
	FieldObjectSize:     msgs.CmdObjectSize,
}

// Command returns the command which reads or writes the field.
func (f Field) Command() msgs.Command {
	if f < 0 || f >= numFields {
		return msgs.CmdNone
	}
	return fieldCommands[f]
}

func (f Field) String() string {
	return f.Command().String()
}

// FieldOf maps a setting command to its field.
func FieldOf(cmd msgs.Command) (Field, bool) {
	for f, c := range fieldCommands {
		if c == cmd {
			return Field(f), true
		}
	}
	return 0, false
}

// Config is the device configuration as last confirmed by the device.
type Config struct {
	FrameRate      uint8
	Mode           msgs.CaptureMode
	DistanceFilter Range[uint16]
	AngleFilter    Range[int8]
	MovingFilter   msgs.MovingFilterMode
	PointDensity   msgs.Density
	Certainty      uint8
	HeightFilter   Range[int16]
	ObjectSize     uint8

	known [numFields]bool
}

// Known returns true if the field has been confirmed by the device.
func (c Config) Known(f Field) bool {
	return f >= 0 && f < numFields && c.known[f]
}

// Check returns ErrUnknownValue if the field is not known.
func (c Config) Check(f Field) error {
	if !c.Known(f) {
		return ErrUnknownValue
	}
	return nil
}

// Describe formats the value of a field, "unknown" if not confirmed.
func (c Config) Describe(f Field) string {
	if !c.Known(f) {
		return "unknown"
	}
	switch f {
	case FieldFrameRate:
		return fmt.Sprintf("%d fps", c.FrameRate)
	case FieldMode:
		return c.Mode.String()
	case FieldDistanceFilter:
		return fmt.Sprintf("%d..%d mm", c.DistanceFilter.Min, c.DistanceFilter.Max)
	case FieldAngleFilter:
		return fmt.Sprintf("%d..%d deg", c.AngleFilter.Min, c.AngleFilter.Max)
	case FieldMovingFilter:
		return c.MovingFilter.String()
	case FieldPointDensity:
		return c.PointDensity.String()
	case FieldCertainty:
		return fmt.Sprint(c.Certainty)
	case FieldHeightFilter:
		return fmt.Sprintf("%d..%d mm", c.HeightFilter.Min, c.HeightFilter.Max)
	}
	return fmt.Sprint(c.ObjectSize)
}

// apply updates the config from a settings response, returns the field
// changed or false if the response carries no setting.
func (c *Config) apply(r msgs.Response) (Field, bool) {
	var f Field
	switch v := r.(type) {
	case msgs.FrameRate:
		c.FrameRate, f = v.Rate, FieldFrameRate
	case msgs.Mode:
		c.Mode, f = v.Mode, FieldMode
	case msgs.DistanceFilter:
		c.DistanceFilter, f = Range[uint16]{Min: v.Min, Max: v.Max}, FieldDistanceFilter
	case msgs.AngleFilter:
		c.AngleFilter, f = Range[int8]{Min: v.Min, Max: v.Max}, FieldAngleFilter
	case msgs.MovingFilter:
		c.MovingFilter, f = v.Mode, FieldMovingFilter
	case msgs.PointDensity:
		c.PointDensity, f = v.Density, FieldPointDensity
	case msgs.Certainty:
		c.Certainty, f = v.Level, FieldCertainty
	case msgs.HeightFilter:
		c.HeightFilter, f = Range[int16]{Min: v.Min, Max: v.Max}, FieldHeightFilter
	case msgs.ObjectSize:
		c.ObjectSize, f = v.Size, FieldObjectSize
	default:
		return 0, false
	}
	c.known[f] = true
	return f, true
}

// commit applies the value of a confirmed setter request.
func (c *Config) commit(req msgs.Request) (Field, bool) {
	h := msgs.FrameHeader{Command: req.Command()}
	switch v := req.(type) {
	case msgs.SetFrameRate:
		return c.apply(msgs.FrameRate{FrameHeader: h, Rate: v.Rate})
	case msgs.SetMode:
		return c.apply(msgs.Mode{FrameHeader: h, Mode: v.Mode})
	case msgs.SetDistanceFilter:
		return c.apply(msgs.DistanceFilter{FrameHeader: h, Min: v.Min, Max: v.Max})
	case msgs.SetAngleFilter:
		return c.apply(msgs.AngleFilter{FrameHeader: h, Min: v.Min, Max: v.Max})
	case msgs.SetMovingFilter:
		return c.apply(msgs.MovingFilter{FrameHeader: h, Mode: v.Mode})
	case msgs.SetPointDensity:
		return c.apply(msgs.PointDensity{FrameHeader: h, Density: v.Density})
	case msgs.SetCertainty:
		return c.apply(msgs.Certainty{FrameHeader: h, Level: v.Level})
	case msgs.SetHeightFilter:
		return c.apply(msgs.HeightFilter{FrameHeader: h, Min: v.Min, Max: v.Max})
	case msgs.SetObjectSize:
		return c.apply(msgs.ObjectSize{FrameHeader: h, Size: v.Size})
	}
	return 0, false
}
