package basepb

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// MarshalApiDown encodes a client command into its wire form.
func MarshalApiDown(m *ApiDown) []byte {
	var b []byte
	switch {
	case m.SetReportFrequency != nil:
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*m.SetReportFrequency))
	case m.BaseCommand != nil:
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, appendBaseCommand(nil, m.BaseCommand))
	}
	return b
}

func appendBaseCommand(b []byte, m *BaseCommand) []byte {
	switch {
	case m.ApiControlInitialize != nil:
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(*m.ApiControlInitialize))
	case m.SimpleMoveCommand != nil:
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, appendSimpleMove(nil, m.SimpleMoveCommand))
	}
	return b
}

func appendSimpleMove(b []byte, m *SimpleBaseMoveCommand) []byte {
	if m.XyzSpeed != nil {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, appendXyzSpeed(nil, m.XyzSpeed))
	}
	return b
}

func appendXyzSpeed(b []byte, m *XyzSpeed) []byte {
	if m.SpeedX != 0 {
		b = protowire.AppendTag(b, 1, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(m.SpeedX))
	}
	if m.SpeedY != 0 {
		b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(m.SpeedY))
	}
	if m.SpeedZ != 0 {
		b = protowire.AppendTag(b, 3, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(m.SpeedZ))
	}
	return b
}

// MarshalApiUp encodes a base-to-client frame. The live client never sends
// these; the encoder exists for tools and tests that stand in for the base.
func MarshalApiUp(m *ApiUp) []byte {
	var b []byte
	if m.SessionId != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.SessionId))
	}
	if m.ProtocolMajorVersion != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.ProtocolMajorVersion))
	}
	if m.Log != nil {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, *m.Log)
	}
	if m.BaseStatus != nil {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, appendBaseStatus(nil, m.BaseStatus))
	}
	return b
}

func appendBaseStatus(b []byte, m *BaseStatus) []byte {
	if m.ApiControlInitialized {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if m.SessionHolder != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.SessionHolder))
	}
	if m.ParkingStopDetail != nil {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(*m.ParkingStopDetail))
	}
	if m.EstimatedOdometry != nil {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, appendXyzSpeed(nil, m.EstimatedOdometry))
	}
	return b
}

// UnmarshalApiUp decodes a base-to-client frame. Unknown fields are skipped
// so newer minor revisions of the protocol still decode.
func UnmarshalApiUp(data []byte) (*ApiUp, error) {
	m := &ApiUp{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode ApiUp tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiUp session_id: %w", protowire.ParseError(n))
			}
			m.SessionId = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiUp protocol_major_version: %w", protowire.ParseError(n))
			}
			m.ProtocolMajorVersion = uint32(v)
			b = b[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiUp log: %w", protowire.ParseError(n))
			}
			m.Log = &v
			b = b[n:]
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiUp base_status: %w", protowire.ParseError(n))
			}
			status, err := unmarshalBaseStatus(v)
			if err != nil {
				return nil, err
			}
			m.BaseStatus = status
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiUp field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalBaseStatus(data []byte) (*BaseStatus, error) {
	m := &BaseStatus{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode BaseStatus tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseStatus api_control_initialized: %w", protowire.ParseError(n))
			}
			m.ApiControlInitialized = protowire.DecodeBool(v)
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseStatus session_holder: %w", protowire.ParseError(n))
			}
			m.SessionHolder = uint32(v)
			b = b[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseStatus parking_stop_detail: %w", protowire.ParseError(n))
			}
			reason := ParkingStopReason(v)
			m.ParkingStopDetail = &reason
			b = b[n:]
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseStatus estimated_odometry: %w", protowire.ParseError(n))
			}
			speed, err := unmarshalXyzSpeed(v)
			if err != nil {
				return nil, err
			}
			m.EstimatedOdometry = speed
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseStatus field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalXyzSpeed(data []byte) (*XyzSpeed, error) {
	m := &XyzSpeed{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode XyzSpeed tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if typ == protowire.Fixed32Type && num >= 1 && num <= 3 {
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, fmt.Errorf("decode XyzSpeed field %d: %w", num, protowire.ParseError(n))
			}
			f := math.Float32frombits(v)
			switch num {
			case 1:
				m.SpeedX = f
			case 2:
				m.SpeedY = f
			case 3:
				m.SpeedZ = f
			}
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("decode XyzSpeed field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}

// UnmarshalApiDown decodes a client command. The live client never receives
// these; the decoder exists for tools and tests that stand in for the base.
func UnmarshalApiDown(data []byte) (*ApiDown, error) {
	m := &ApiDown{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode ApiDown tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiDown set_report_frequency: %w", protowire.ParseError(n))
			}
			f := ReportFrequency(v)
			m.SetReportFrequency = &f
			m.BaseCommand = nil
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiDown base_command: %w", protowire.ParseError(n))
			}
			cmd, err := unmarshalBaseCommand(v)
			if err != nil {
				return nil, err
			}
			m.BaseCommand = cmd
			m.SetReportFrequency = nil
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("decode ApiDown field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalBaseCommand(data []byte) (*BaseCommand, error) {
	m := &BaseCommand{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode BaseCommand tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseCommand api_control_initialize: %w", protowire.ParseError(n))
			}
			enabled := protowire.DecodeBool(v)
			m.ApiControlInitialize = &enabled
			m.SimpleMoveCommand = nil
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseCommand simple_move_command: %w", protowire.ParseError(n))
			}
			var err error
			m.SimpleMoveCommand, err = unmarshalSimpleMove(v)
			if err != nil {
				return nil, err
			}
			m.ApiControlInitialize = nil
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("decode BaseCommand field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalSimpleMove(data []byte) (*SimpleBaseMoveCommand, error) {
	m := &SimpleBaseMoveCommand{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode SimpleBaseMoveCommand tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode SimpleBaseMoveCommand xyz_speed: %w", protowire.ParseError(n))
			}
			speed, err := unmarshalXyzSpeed(v)
			if err != nil {
				return nil, err
			}
			m.XyzSpeed = speed
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, fmt.Errorf("decode SimpleBaseMoveCommand field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}
