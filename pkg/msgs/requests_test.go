package msgs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/comm"
)

func TestNewFrame(t *testing.T) {
	testCases := []struct {
		name    string
		req     Request
		variant comm.Variant
		payload []byte
	}{
		{"get frame rate", Get{Cmd: CmdFrameRate}, comm.VariantRequest, nil},
		{"set frame rate", SetFrameRate{Rate: 10}, comm.VariantSet, []byte{10}},
		{"set mode", SetMode{Mode: ModeObjectTracking}, comm.VariantSet, []byte{1}},
		{"set distance", SetDistanceFilter{Min: 100, Max: 5000}, comm.VariantSet, []byte{0x64, 0x00, 0x88, 0x13}},
		{"set angle", SetAngleFilter{Min: -55, Max: 55}, comm.VariantSet, []byte{0xc9, 0x37}},
		{"set moving", SetMovingFilter{Mode: MovingObjectsOnly}, comm.VariantSet, []byte{1}},
		{"set density", SetPointDensity{Density: DensityVeryDense}, comm.VariantSet, []byte{2}},
		{"set certainty", SetCertainty{Level: 9}, comm.VariantSet, []byte{9}},
		{"set height", SetHeightFilter{Min: -1000, Max: 2000}, comm.VariantSet, []byte{0x18, 0xfc, 0xd0, 0x07}},
		{"set object size", SetObjectSize{Size: 4}, comm.VariantSet, []byte{4}},
		{"reset factory", Reset{Code: ResetFactory}, comm.VariantSet, []byte{1}},
		{"save", Save{}, comm.VariantRequest, nil},
		{"scene calibrate", SceneCalibrate{}, comm.VariantSet, nil},
		{"capture start", CaptureStart{NumFrames: 5}, comm.VariantRequest, []byte{5}},
		{"capture continuous", CaptureStart{}, comm.VariantRequest, []byte{0}},
		{"capture stop", CaptureStop{}, comm.VariantRequest, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFrame(tc.req)
			require.NoError(t, err)
			require.Equal(t, tc.req.Command().Byte(), f.Command)
			require.Equal(t, tc.variant, f.Variant)
			require.Equal(t, tc.payload, f.Payload)
		})
	}
}

func TestNewFrameEncoding(t *testing.T) {
	f, err := NewFrame(SetFrameRate{Rate: 10})
	require.NoError(t, err)
	require.Equal(t, []byte{0xb0, 0x04, 0x02, 0x0a, 0xd7, 0x74, 0xb1}, comm.Encode(f))

	f, err = NewFrame(SetAngleFilter{Min: -55, Max: 55})
	require.NoError(t, err)
	require.Equal(t, []byte{0xb0, 0x07, 0x02, 0xc9, 0x37, 0x51, 0xf5, 0xb1}, comm.Encode(f))

	f, err = NewFrame(Save{})
	require.NoError(t, err)
	require.Equal(t, []byte{0xb0, 0x09, 0x00, 0xa7, 0x97, 0xb1}, comm.Encode(f))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		req   Request
		field string
	}{
		{"frame rate zero", SetFrameRate{Rate: 0}, "frame rate"},
		{"frame rate high", SetFrameRate{Rate: 31}, "frame rate"},
		{"mode", SetMode{Mode: 3}, "capture mode"},
		{"distance max", SetDistanceFilter{Min: 0, Max: 10001}, "distance filter max"},
		{"angle min", SetAngleFilter{Min: -56, Max: 0}, "angle filter min"},
		{"angle max", SetAngleFilter{Min: 0, Max: 60}, "angle filter max"},
		{"moving", SetMovingFilter{Mode: 2}, "moving filter"},
		{"density", SetPointDensity{Density: 3}, "point density"},
		{"certainty", SetCertainty{Level: 10}, "certainty"},
		{"object size", SetObjectSize{Size: 5}, "object size"},
		{"reset code", Reset{Code: 2}, "reset code"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFrame(tc.req)
			var rangeErr *RangeError
			require.True(t, errors.As(err, &rangeErr))
			require.Equal(t, tc.field, rangeErr.Field)
		})
	}
}

func TestValidateInvertedRange(t *testing.T) {
	for _, req := range []Request{
		SetDistanceFilter{Min: 500, Max: 100},
		SetAngleFilter{Min: 10, Max: -10},
		SetHeightFilter{Min: 10, Max: -10},
	} {
		require.ErrorIs(t, req.Validate(), ErrInvertedRange)
	}
	require.NoError(t, SetHeightFilter{Min: -32768, Max: 32767}.Validate())
	require.NoError(t, SetAngleFilter{Min: 5, Max: 5}.Validate())
}

func TestGetValidate(t *testing.T) {
	require.NoError(t, Get{Cmd: CmdIWRVersion}.Validate())
	require.ErrorIs(t, Get{Cmd: CmdPointCloudFrame}.Validate(), ErrNotQueryable)
	require.ErrorIs(t, Get{Cmd: CmdUnknown}.Validate(), ErrNotQueryable)
}
