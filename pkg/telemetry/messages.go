package telemetry

import (
	"github.com/golang/protobuf/proto"
)

// Type IDs of telemetry messages.
const (
	PointCloudTypeID     uint32 = TypeIDKindEvent | 0x00010001
	ObjectTrackingTypeID uint32 = TypeIDKindEvent | 0x00010002
	RawFrameTypeID       uint32 = TypeIDKindEvent | 0x00010003
	DeviceStatusTypeID   uint32 = TypeIDKindEvent | 0x00010004
	DeviceLogTypeID      uint32 = TypeIDKindEvent | 0x00010005
)

// Point is a point cloud detection.
type Point struct {
	X         int32  `protobuf:"zigzag32,1,opt,name=x,proto3" json:"x,omitempty"`
	Y         int32  `protobuf:"zigzag32,2,opt,name=y,proto3" json:"y,omitempty"`
	Z         int32  `protobuf:"zigzag32,3,opt,name=z,proto3" json:"z,omitempty"`
	Intensity uint32 `protobuf:"varint,4,opt,name=intensity,proto3" json:"intensity,omitempty"`
	Velocity  int32  `protobuf:"zigzag32,5,opt,name=velocity,proto3" json:"velocity,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Point) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Point) Reset() { *m = Point{} }

// String implements proto.Message.
func (m *Point) String() string { return proto.CompactTextString(m) }

// PointCloud is a complete point cloud frame.
type PointCloud struct {
	DeviceID    string   `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Seq         uint64   `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	TimestampNs int64    `protobuf:"varint,3,opt,name=timestamp_ns,proto3" json:"timestamp_ns,omitempty"`
	Points      []*Point `protobuf:"bytes,4,rep,name=points,proto3" json:"points,omitempty"`
}

// NewMessage implements Message.
func (m *PointCloud) NewMessage() Message { return &PointCloud{} }

// TypeID implements Message.
func (m *PointCloud) TypeID() uint32 { return PointCloudTypeID }

// ProtoMessage implements proto.Message.
func (m *PointCloud) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PointCloud) Reset() { *m = PointCloud{} }

// String implements proto.Message.
func (m *PointCloud) String() string { return proto.CompactTextString(m) }

// TrackedObject is a tracked object.
type TrackedObject struct {
	TargetID uint32 `protobuf:"varint,1,opt,name=target_id,proto3" json:"target_id,omitempty"`
	XPos     int32  `protobuf:"zigzag32,2,opt,name=x_pos,proto3" json:"x_pos,omitempty"`
	YPos     int32  `protobuf:"zigzag32,3,opt,name=y_pos,proto3" json:"y_pos,omitempty"`
	ZPos     int32  `protobuf:"zigzag32,4,opt,name=z_pos,proto3" json:"z_pos,omitempty"`
	XVel     int32  `protobuf:"zigzag32,5,opt,name=x_vel,proto3" json:"x_vel,omitempty"`
	YVel     int32  `protobuf:"zigzag32,6,opt,name=y_vel,proto3" json:"y_vel,omitempty"`
	ZVel     int32  `protobuf:"zigzag32,7,opt,name=z_vel,proto3" json:"z_vel,omitempty"`
	XAcc     int32  `protobuf:"zigzag32,8,opt,name=x_acc,proto3" json:"x_acc,omitempty"`
	YAcc     int32  `protobuf:"zigzag32,9,opt,name=y_acc,proto3" json:"y_acc,omitempty"`
	ZAcc     int32  `protobuf:"zigzag32,10,opt,name=z_acc,proto3" json:"z_acc,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *TrackedObject) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TrackedObject) Reset() { *m = TrackedObject{} }

// String implements proto.Message.
func (m *TrackedObject) String() string { return proto.CompactTextString(m) }

// ObjectTracking is a complete object tracking frame.
type ObjectTracking struct {
	DeviceID    string           `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Seq         uint64           `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	TimestampNs int64            `protobuf:"varint,3,opt,name=timestamp_ns,proto3" json:"timestamp_ns,omitempty"`
	Objects     []*TrackedObject `protobuf:"bytes,4,rep,name=objects,proto3" json:"objects,omitempty"`
}

// NewMessage implements Message.
func (m *ObjectTracking) NewMessage() Message { return &ObjectTracking{} }

// TypeID implements Message.
func (m *ObjectTracking) TypeID() uint32 { return ObjectTrackingTypeID }

// ProtoMessage implements proto.Message.
func (m *ObjectTracking) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ObjectTracking) Reset() { *m = ObjectTracking{} }

// String implements proto.Message.
func (m *ObjectTracking) String() string { return proto.CompactTextString(m) }

// RawFrame is an opaque raw data frame.
type RawFrame struct {
	DeviceID    string `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Seq         uint64 `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	TimestampNs int64  `protobuf:"varint,3,opt,name=timestamp_ns,proto3" json:"timestamp_ns,omitempty"`
	Data        []byte `protobuf:"bytes,4,opt,name=data,proto3" json:"data,omitempty"`
}

// NewMessage implements Message.
func (m *RawFrame) NewMessage() Message { return &RawFrame{} }

// TypeID implements Message.
func (m *RawFrame) TypeID() uint32 { return RawFrameTypeID }

// ProtoMessage implements proto.Message.
func (m *RawFrame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RawFrame) Reset() { *m = RawFrame{} }

// String implements proto.Message.
func (m *RawFrame) String() string { return proto.CompactTextString(m) }

// DeviceStatus reflects the device state after a change.
type DeviceStatus struct {
	DeviceID  string `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Capturing bool   `protobuf:"varint,2,opt,name=capturing,proto3" json:"capturing,omitempty"`
	Mode      uint32 `protobuf:"varint,3,opt,name=mode,proto3" json:"mode,omitempty"`
	PowerGood bool   `protobuf:"varint,4,opt,name=power_good,proto3" json:"power_good,omitempty"`
	// Errors counts receive errors since start.
	Errors uint64 `protobuf:"varint,5,opt,name=errors,proto3" json:"errors,omitempty"`
}

// NewMessage implements Message.
func (m *DeviceStatus) NewMessage() Message { return &DeviceStatus{} }

// TypeID implements Message.
func (m *DeviceStatus) TypeID() uint32 { return DeviceStatusTypeID }

// ProtoMessage implements proto.Message.
func (m *DeviceStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeviceStatus) Reset() { *m = DeviceStatus{} }

// String implements proto.Message.
func (m *DeviceStatus) String() string { return proto.CompactTextString(m) }

// DeviceLog is a message logged by the device.
type DeviceLog struct {
	DeviceID string `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Type     uint32 `protobuf:"varint,2,opt,name=type,proto3" json:"type,omitempty"`
	Code     uint32 `protobuf:"varint,3,opt,name=code,proto3" json:"code,omitempty"`
	Text     string `protobuf:"bytes,4,opt,name=text,proto3" json:"text,omitempty"`
}

// NewMessage implements Message.
func (m *DeviceLog) NewMessage() Message { return &DeviceLog{} }

// TypeID implements Message.
func (m *DeviceLog) TypeID() uint32 { return DeviceLogTypeID }

// ProtoMessage implements proto.Message.
func (m *DeviceLog) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeviceLog) Reset() { *m = DeviceLog{} }

// String implements proto.Message.
func (m *DeviceLog) String() string { return proto.CompactTextString(m) }
