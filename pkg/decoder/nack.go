package decoder

import (
	"fmt"

	"utrinv/pkg/frame"
)

// NackCategory names the reason a reader rejected a command.
type NackCategory string

const (
	NackCRC           NackCategory = "CMD_CRC_ERROR"
	NackTimeOver      NackCategory = "CMD_TIME_OVER"
	NackAntiCollision NackCategory = "CMD_RX_ERROR"
	NackTagBusy       NackCategory = "CMD_RXBUSY_ERROR"
	NackCommand       NackCategory = "CMD_ERROR"
	NackTagChip       NackCategory = "CMD_UHF_IC_ERROR"
	NackCarrierSense  NackCategory = "CMD_LBT_ERROR"
	NackHardware      NackCategory = "HARDWARE_ERROR"
	NackAntenna       NackCategory = "CMD_ANT_ERROR"
	NackHostChecksum  NackCategory = "SUM_ERROR"
	NackHostFormat    NackCategory = "FORMAT_ERROR"
	NackUnknown       NackCategory = "UNKNOWN"
	NackMalformed     NackCategory = "MALFORMED"
)

type nackEntry struct {
	category NackCategory
	message  string
}

var nackTable = map[byte]nackEntry{
	0x01: {NackCRC, "CRC mismatch in tag data"},
	0x02: {NackTimeOver, "data transfer interrupted (timeout)"},
	0x03: {NackAntiCollision, "anti-collision error"},
	0x04: {NackTagBusy, "tag busy or no response from tag"},
	0x07: {NackCommand, "internal error while executing command"},
	0x0A: {NackTagChip, "tag chip error during access"},
	0x42: {NackHostChecksum, "checksum of host command is wrong"},
	0x44: {NackHostFormat, "format or parameter of host command is wrong"},
	0x60: {NackCarrierSense, "carrier sense timeout"},
	0x64: {NackHardware, "hardware fault inside reader"},
	0x68: {NackAntenna, "antenna disconnected"},
}

// NackDiagnostic is the decoded reason carried by a NACK frame.
type NackDiagnostic struct {
	Code     byte
	Category NackCategory
	Message  string
}

func (d NackDiagnostic) String() string {
	return fmt.Sprintf("%s (0x%02X): %s", d.Category, d.Code, d.Message)
}

// TranslateNack maps an error code to its diagnostic. Unassigned codes map
// to NackUnknown carrying the raw code.
func TranslateNack(code byte) NackDiagnostic {
	if e, ok := nackTable[code]; ok {
		return NackDiagnostic{Code: code, Category: e.category, Message: e.message}
	}
	return NackDiagnostic{
		Code:     code,
		Category: NackUnknown,
		Message:  fmt.Sprintf("unknown NACK error (0x%02X)", code),
	}
}

// DecodeNack extracts the diagnostic from a NACK frame. The error code is
// the second payload byte, after the detail byte echoing the rejected
// command. A payload too short to carry a code yields NackMalformed.
func DecodeNack(f frame.Frame) NackDiagnostic {
	p := f.Payload()
	if len(p) < 2 {
		return NackDiagnostic{Category: NackMalformed, Message: "NACK frame carries no error code"}
	}
	return TranslateNack(p[1])
}
