// Package telemetry publishes duty-cycle reports off the device.
package telemetry

import (
	"bytes"
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/pwmlink/pkg/link"
)

// Report directions.
const (
	DirectionSent     = "tx"
	DirectionReceived = "rx"
	DirectionLocal    = "local"
)

// Report is one measurement seen by a node.
type Report struct {
	NodeID      string  `protobuf:"bytes,1,opt,name=node_id,proto3" json:"node_id,omitempty"`
	Mode        string  `protobuf:"bytes,2,opt,name=mode,proto3" json:"mode,omitempty"`
	Direction   string  `protobuf:"bytes,3,opt,name=direction,proto3" json:"direction,omitempty"`
	Seq         int32   `protobuf:"varint,4,opt,name=seq,proto3" json:"seq,omitempty"`
	Duty        float64 `protobuf:"fixed64,5,opt,name=duty,proto3" json:"duty,omitempty"`
	Voltage     float64 `protobuf:"fixed64,6,opt,name=voltage,proto3" json:"voltage,omitempty"`
	RealDuty    float64 `protobuf:"fixed64,7,opt,name=real_duty,proto3" json:"real_duty,omitempty"`
	Error       float64 `protobuf:"fixed64,8,opt,name=error,proto3" json:"error,omitempty"`
	TimestampMs int64   `protobuf:"varint,9,opt,name=timestamp_ms,proto3" json:"timestamp_ms,omitempty"`
}

// ProtoMessage implements proto.Message.
func (r *Report) ProtoMessage() {}

// Reset implements proto.Message.
func (r *Report) Reset() { *r = Report{} }

// String implements proto.Message.
func (r *Report) String() string { return proto.CompactTextString(r) }

// FrameReport builds a Report from a sequenced frame. Seq is -1 for
// reports without a sequence.
func FrameReport(dir string, f *link.Frame, at time.Time) *Report {
	return &Report{
		Direction:   dir,
		Seq:         int32(f.Seq),
		Duty:        float64(f.Duty),
		Voltage:     f.Voltage,
		RealDuty:    f.RealDuty,
		Error:       f.Discrepancy(),
		TimestampMs: at.UnixNano() / int64(time.Millisecond),
	}
}

// LegacyReport builds a Report from a legacy measurement report.
func LegacyReport(dir string, r link.Report, at time.Time) *Report {
	return &Report{
		Direction:   dir,
		Seq:         -1,
		Duty:        r.Theoretical,
		RealDuty:    r.Measured,
		Error:       r.Error,
		TimestampMs: at.UnixNano() / int64(time.Millisecond),
	}
}

// Time returns the report timestamp.
func (r *Report) Time() time.Time {
	return time.Unix(0, r.TimestampMs*int64(time.Millisecond))
}

// Summary formats the report for console output.
func (r *Report) Summary() string {
	seq := "---"
	if r.Seq >= 0 {
		seq = fmt.Sprintf("%03d", r.Seq)
	}
	return fmt.Sprintf("%s %-5s seq=%s duty=%5.1f%% real=%5.1f%% volts=%4.2fV error=%+.1f%%",
		r.NodeID, r.Direction, seq, r.Duty, r.RealDuty, r.Voltage, r.Error)
}

// Encoding selects the wire encoding of reports.
type Encoding string

// Encodings.
const (
	EncodingProto Encoding = "proto"
	EncodingJSON  Encoding = "json"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(name string) (Encoding, error) {
	switch enc := Encoding(name); enc {
	case EncodingProto, EncodingJSON:
		return enc, nil
	case "":
		return EncodingProto, nil
	default:
		return "", fmt.Errorf("unknown encoding %q", name)
	}
}

// Marshal encodes a report.
func (e Encoding) Marshal(r *Report) ([]byte, error) {
	if e == EncodingJSON {
		var buf bytes.Buffer
		if err := (&jsonpb.Marshaler{OrigName: true}).Marshal(&buf, r); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return proto.Marshal(r)
}

// Unmarshal decodes a report. JSON is detected by its leading brace, so
// a subscriber accepts either encoding.
func Unmarshal(data []byte) (*Report, error) {
	r := &Report{}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := jsonpb.Unmarshal(bytes.NewReader(trimmed), r); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := proto.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Sink receives reports.
type Sink interface {
	Publish(*Report)
}

// SinkFunc is the func form of Sink.
type SinkFunc func(*Report)

// Publish implements Sink.
func (f SinkFunc) Publish(r *Report) {
	f(r)
}

// Discard drops all reports.
var Discard Sink = SinkFunc(func(*Report) {})
