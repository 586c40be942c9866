package sim

import (
	"encoding/binary"

	"github.com/robotalks/radariq.go/pkg/msgs"
)

var le = binary.LittleEndian

func appendVersion(b []byte, v msgs.VersionNumber) []byte {
	return le.AppendUint16(append(b, v.Major, v.Minor), v.Build)
}

func appendIWRImage(b []byte, v msgs.IWRVersionNumber) []byte {
	b = appendVersion(b, v.VersionNumber)
	name := make([]byte, 20)
	copy(name[:len(name)-1], v.Name)
	return append(b, name...)
}

func appendPoint(b []byte, p msgs.Point) []byte {
	b = le.AppendUint16(b, uint16(p.X))
	b = le.AppendUint16(b, uint16(p.Y))
	b = le.AppendUint16(b, uint16(p.Z))
	b = append(b, p.Intensity)
	return le.AppendUint16(b, uint16(p.Velocity))
}

func appendObject(b []byte, o msgs.TrackedObject) []byte {
	b = append(b, o.TargetID)
	for _, v := range []int16{o.XPos, o.YPos, o.ZPos, o.XVel, o.YVel, o.ZVel, o.XAcc, o.YAcc, o.ZAcc} {
		b = le.AppendUint16(b, uint16(v))
	}
	return b
}

// fragments splits records into START, MIDDLE.., END payloads. A frame
// fitting one subframe is sent as START followed by an empty END.
func fragments[T any](records []T, per int, put func([]byte, T) []byte) [][]byte {
	if per <= 0 {
		per = max(len(records), 1)
	}
	var payloads [][]byte
	for off := 0; off == 0 || off < len(records); off += per {
		end := min(off+per, len(records))
		sub := msgs.SubframeMiddle
		if off == 0 {
			sub = msgs.SubframeStart
		} else if end == len(records) {
			sub = msgs.SubframeEnd
		}
		b := []byte{byte(sub), byte(end - off)}
		for _, r := range records[off:end] {
			b = put(b, r)
		}
		payloads = append(payloads, b)
	}
	if len(payloads) == 1 {
		payloads = append(payloads, []byte{byte(msgs.SubframeEnd), 0})
	}
	return payloads
}

func settingPayload(cmd msgs.Command, st *Settings) []byte {
	switch cmd {
	case msgs.CmdFrameRate:
		return []byte{st.FrameRate}
	case msgs.CmdMode:
		return []byte{byte(st.Mode)}
	case msgs.CmdDistanceFilter:
		return le.AppendUint16(le.AppendUint16(nil, st.DistanceMin), st.DistanceMax)
	case msgs.CmdAngleFilter:
		return []byte{byte(st.AngleMin), byte(st.AngleMax)}
	case msgs.CmdMovingFilter:
		return []byte{byte(st.MovingFilter)}
	case msgs.CmdPointDensity:
		return []byte{byte(st.PointDensity)}
	case msgs.CmdCertainty:
		return []byte{st.Certainty}
	case msgs.CmdHeightFilter:
		return le.AppendUint16(le.AppendUint16(nil, uint16(st.HeightMin)), uint16(st.HeightMax))
	case msgs.CmdObjectSize:
		return []byte{st.ObjectSize}
	}
	return nil
}

// applySetting validates a SET payload the way the host does and stores it.
func applySetting(cmd msgs.Command, p []byte, st *Settings) error {
	var req msgs.Request
	next := *st
	switch cmd {
	case msgs.CmdFrameRate:
		if len(p) >= 1 {
			next.FrameRate = p[0]
			req = msgs.SetFrameRate{Rate: p[0]}
		}
	case msgs.CmdMode:
		if len(p) >= 1 {
			next.Mode = msgs.CaptureMode(p[0])
			req = msgs.SetMode{Mode: next.Mode}
		}
	case msgs.CmdDistanceFilter:
		if len(p) >= 4 {
			next.DistanceMin, next.DistanceMax = le.Uint16(p), le.Uint16(p[2:])
			req = msgs.SetDistanceFilter{Min: next.DistanceMin, Max: next.DistanceMax}
		}
	case msgs.CmdAngleFilter:
		if len(p) >= 2 {
			next.AngleMin, next.AngleMax = int8(p[0]), int8(p[1])
			req = msgs.SetAngleFilter{Min: next.AngleMin, Max: next.AngleMax}
		}
	case msgs.CmdMovingFilter:
		if len(p) >= 1 {
			next.MovingFilter = msgs.MovingFilterMode(p[0])
			req = msgs.SetMovingFilter{Mode: next.MovingFilter}
		}
	case msgs.CmdPointDensity:
		if len(p) >= 1 {
			next.PointDensity = msgs.Density(p[0])
			req = msgs.SetPointDensity{Density: next.PointDensity}
		}
	case msgs.CmdCertainty:
		if len(p) >= 1 {
			next.Certainty = p[0]
			req = msgs.SetCertainty{Level: p[0]}
		}
	case msgs.CmdHeightFilter:
		if len(p) >= 4 {
			next.HeightMin, next.HeightMax = int16(le.Uint16(p)), int16(le.Uint16(p[2:]))
			req = msgs.SetHeightFilter{Min: next.HeightMin, Max: next.HeightMax}
		}
	case msgs.CmdObjectSize:
		if len(p) >= 1 {
			next.ObjectSize = p[0]
			req = msgs.SetObjectSize{Size: p[0]}
		}
	}
	if req == nil {
		return &msgs.PayloadError{Command: cmd, Length: len(p)}
	}
	if err := req.Validate(); err != nil {
		return err
	}
	*st = next
	return nil
}
