package echonet_lite

import (
	"fmt"
	"strings"
)

// ECHONET Lite references:
// https://echonet.jp/spec_g/
//  https://echonet.jp/spec_v114_lite/ (ECHONET Lite)
//  https://echonet.jp/spec_object_rr2/ (ECHONET Lite objects)

// ECHONETLiteMessage is one parsed application-layer PDU: header, the
// requesting/responding object pair, the service code, and the property
// list(s) it carries.
type ECHONETLiteMessage struct {
	EHD              EHDType    // fixed header (EHD1/EHD2)
	TID              TIDType    // transaction id, echoed on replies
	SEOJ             EOJ        // source object
	DEOJ             EOJ        // destination object
	ESV              ESVType    // service code
	Properties       Properties // property list
	SetGetProperties Properties // second (Get-side) property list for SetGet family
}

const (
	EHD_ECHONETLite EHDType = 0x1081 // the only header value this codec accepts

	ECHONETLitePort = 3610 // well-known UDP port, unicast and multicast alike
)

// decodeUint16BE and its Encode counterpart back both EHDType and TIDType:
// every multi-byte scalar in the frame header is big-endian.
func decodeUint16BE(data []byte) uint16 {
	if len(data) < 2 {
		return 0
	}
	return uint16(data[0])<<8 | uint16(data[1])
}

func encodeUint16BE(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v & 0xff)}
}

type EHDType uint16

func DecodeEHD(data []byte) EHDType { return EHDType(decodeUint16BE(data)) }
func (e EHDType) Encode() []byte    { return encodeUint16BE(uint16(e)) }

func (e EHDType) String() string {
	switch e {
	case EHD_ECHONETLite:
		return "ECHONET Lite"
	default:
		return fmt.Sprintf("(%X)", uint16(e))
	}
}

type TIDType uint16

func DecodeTID(data []byte) TIDType { return TIDType(decodeUint16BE(data)) }
func (t TIDType) Encode() []byte    { return encodeUint16BE(uint16(t)) }

func (m *ECHONETLiteMessage) EOJ() EOJ {
	switch m.ESV {
	case ESVSet_Res, ESVGet_Res, ESVINF, ESVINFC, ESVINFC_Res, ESVSetGet_Res,
		ESVSetI_SNA, ESVSetC_SNA, ESVGet_SNA, ESVINF_REQ_SNA, ESVSetGet_SNA:
		return m.SEOJ
	}
	return m.DEOJ
}

func (m *ECHONETLiteMessage) String() string {
	EOJ := m.EOJ()
	parts := []string{
		fmt.Sprintf("EHD:%v", m.EHD),
		fmt.Sprintf("TID:%v", m.TID),
		fmt.Sprintf("SEOJ:%v", m.SEOJ),
		fmt.Sprintf("DEOJ:%v", m.DEOJ),
		fmt.Sprintf("ESV:%v", m.ESV),
	}
	if m.ESV.ISSetGet() {
		parts = append(parts,
			fmt.Sprintf("Properties(Set):%v", m.Properties.String(EOJ.ClassCode())),
			fmt.Sprintf("Properties(Get):%v", m.SetGetProperties.String(EOJ.ClassCode())),
		)
	} else {
		parts = append(parts,
			fmt.Sprintf("Properties:%v", m.Properties.String(EOJ.ClassCode())),
		)
	}
	return strings.Join(parts, ", ")
}

type ESVType byte

func (e ESVType) Encode() []byte {
	return []byte{byte(e)}
}

const (
	ESVSetI    ESVType = 0x60 // SetI: write request, no response expected
	ESVSetC    ESVType = 0x61 // SetC: write request, response required
	ESVGet     ESVType = 0x62 // Get: read request
	ESVINF_REQ ESVType = 0x63 // INF_REQ: notification request
	ESVSetGet  ESVType = 0x6e // SetGet: combined write+read request

	ESVSet_Res    ESVType = 0x71 // Set_Res: write response
	ESVGet_Res    ESVType = 0x72 // Get_Res: read response
	ESVINF        ESVType = 0x73 // INF: notification
	ESVINFC       ESVType = 0x74 // INFC: notification, response required
	ESVINFC_Res   ESVType = 0x7a // INFC_Res: notification response
	ESVSetGet_Res ESVType = 0x7e // SetGet_Res: combined write+read response

	ESVSetI_SNA    ESVType = 0x50 // SetI_SNA: write request rejected
	ESVSetC_SNA    ESVType = 0x51 // SetC_SNA: write request rejected
	ESVGet_SNA     ESVType = 0x52 // Get_SNA: read request rejected
	ESVINF_REQ_SNA ESVType = 0x53 // INF_REQ_SNA: notification request rejected
	ESVSetGet_SNA  ESVType = 0x5e // SetGet_SNA: combined write+read request rejected
)

func (e ESVType) String() string {
	switch e {
	case ESVSetI:
		return "SetI"
	case ESVSetC:
		return "SetC"
	case ESVGet:
		return "Get"
	case ESVINF_REQ:
		return "INF_REQ"
	case ESVSetGet:
		return "SetGet"
	case ESVINF:
		return "INF"
	case ESVINFC:
		return "INFC"
	case ESVINFC_Res:
		return "INFC_Res"
	case ESVSet_Res:
		return "Set_Res"
	case ESVGet_Res:
		return "Get_Res"
	case ESVSetGet_Res:
		return "SetGet_Res"
	case ESVSetI_SNA:
		return "SetI_SNA"
	case ESVSetC_SNA:
		return "SetC_SNA"
	case ESVGet_SNA:
		return "Get_SNA"
	case ESVINF_REQ_SNA:
		return "INF_REQ_SNA"
	case ESVSetGet_SNA:
		return "SetGet_SNA"

	default:
		return fmt.Sprintf("(%X)", byte(e))
	}
}

// ResponseESVs lists the possible response ESVs for a request ESV:
// ESVSetI -> success: none, failure: ESVSetI_SNA
// ESVSetC -> success: ESVSet_Res, failure: ESVSetC_SNA
// ESVGet -> success: ESVGet_Res, failure: ESVGet_SNA
// ESVINF_REQ -> success: ESVINF, failure: ESVINF_REQ_SNA
// ESVSetGet -> success: ESVSetGet_Res, failure: ESVSetGet_SNA
// ESVINFC -> success: ESVINFC_Res
func (e ESVType) ResponseESVs() []ESVType {
	switch e {
	case ESVSetI:
		return []ESVType{ESVSetI_SNA}
	case ESVSetC:
		return []ESVType{ESVSet_Res, ESVSetC_SNA}
	case ESVGet:
		return []ESVType{ESVGet_Res, ESVGet_SNA}
	case ESVINF_REQ:
		return []ESVType{ESVINF, ESVINF_REQ_SNA}
	case ESVSetGet:
		return []ESVType{ESVSetGet_Res, ESVSetGet_SNA}
	case ESVINFC:
		return []ESVType{ESVINFC_Res}
	default:
		return nil
	}
}

func (e ESVType) ISSetGet() bool {
	return e == ESVSetGet || e == ESVSetGet_Res || e == ESVSetGet_SNA
}

// DecodeErrorKind classifies why ParseECHONETLiteMessage rejected a datagram.
// The dispatcher treats all four kinds the same way (silent drop), but keeps
// them distinct for logging.
type DecodeErrorKind int

const (
	TooShort DecodeErrorKind = iota
	BadEHD
	UnknownESV
	Truncated
)

func (k DecodeErrorKind) String() string {
	switch k {
	case TooShort:
		return "TooShort"
	case BadEHD:
		return "BadEHD"
	case UnknownESV:
		return "UnknownESV"
	case Truncated:
		return "Truncated"
	default:
		return "DecodeError"
	}
}

// DecodeError wraps a DecodeErrorKind with the context that produced it.
type DecodeError struct {
	Kind DecodeErrorKind
	Msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func isKnownESV(esv ESVType) bool {
	switch esv {
	case ESVSetI, ESVSetC, ESVGet, ESVINF_REQ, ESVSetGet,
		ESVSet_Res, ESVGet_Res, ESVINF, ESVINFC, ESVINFC_Res, ESVSetGet_Res,
		ESVSetI_SNA, ESVSetC_SNA, ESVGet_SNA, ESVINF_REQ_SNA, ESVSetGet_SNA:
		return true
	}
	return false
}

func parseProperties(data []byte, pos int) (int, []Property, error) {
	if pos >= len(data) {
		return pos, nil, &DecodeError{Truncated, "missing OPC byte"}
	}
	OPC := data[pos]
	pos++
	properties := make([]Property, 0, OPC)
	for i := 0; i < int(OPC); i++ {
		if pos+2 > len(data) {
			return pos, nil, &DecodeError{Truncated, "EPC/PDC run past end of buffer"}
		}
		prop := Property{
			EPC: EPCType(data[pos]),
		}
		PDC := int(data[pos+1])
		pos += 2
		if PDC > 0 {
			if pos+PDC > len(data) {
				return pos, nil, &DecodeError{Truncated, "EDT run past end of buffer"}
			}
			prop.EDT = data[pos : pos+PDC]
			pos += PDC
		}
		properties = append(properties, prop)
	}
	return pos, properties, nil
}

// ParseECHONETLiteMessage parses a received datagram into an
// ECHONETLiteMessage. It returns a *DecodeError for every rejection; the
// caller (the engine's verify step) is responsible for logging and
// dropping, the codec itself never logs.
func ParseECHONETLiteMessage(data []byte) (*ECHONETLiteMessage, error) {
	// EHD(2)+TID(2)+SEOJ(3)+DEOJ(3)+ESV(1)+OPC(1) = 12 bytes. Anything shorter
	// than 13 bytes is rejected as TooShort, so a bare OPC=0 frame (exactly
	// 12 bytes) is rejected too.
	if len(data) < 13 {
		return nil, &DecodeError{TooShort, fmt.Sprintf("%d bytes", len(data))}
	}
	if data[0] != 0x10 || data[1] != 0x81 {
		return nil, &DecodeError{BadEHD, fmt.Sprintf("%02X%02X", data[0], data[1])}
	}

	msg := &ECHONETLiteMessage{
		EHD:  DecodeEHD(data[0:2]),
		TID:  DecodeTID(data[2:4]),
		SEOJ: DecodeEOJ(data[4:7]),
		DEOJ: DecodeEOJ(data[7:10]),
		ESV:  ESVType(data[10]),
	}
	if !isKnownESV(msg.ESV) {
		return nil, &DecodeError{UnknownESV, msg.ESV.String()}
	}

	pos, properties, err := parseProperties(data, 11)
	if err != nil {
		return nil, err
	}
	msg.Properties = properties

	if msg.ESV.ISSetGet() {
		_, properties, err = parseProperties(data, pos)
		if err != nil {
			return nil, err
		}
		msg.SetGetProperties = properties
	}
	return msg, nil
}

// flattenBytes concatenates chunks into one allocation sized to their total
// length, avoiding the repeated reallocation a naive append loop would cause.
func flattenBytes(chunks [][]byte) []byte {
	totalSize := 0
	for _, chunk := range chunks {
		totalSize += len(chunk)
	}

	result := make([]byte, 0, totalSize)
	for _, chunk := range chunks {
		result = append(result, chunk...)
	}
	return result
}

type IEncodable interface {
	Encode() []byte
}

func encode(encodables ...IEncodable) []byte {
	data := make([][]byte, len(encodables))
	for i, encodable := range encodables {
		data[i] = encodable.Encode()
	}
	return flattenBytes(data)
}

func (m *ECHONETLiteMessage) Encode() []byte {
	EHD := m.EHD
	if EHD == 0 {
		EHD = EHD_ECHONETLite
	}
	return encode(EHD, m.TID, m.SEOJ, m.DEOJ, m.ESV, m.Properties)
}
