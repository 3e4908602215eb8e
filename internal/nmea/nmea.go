package nmea

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// DelimitedStart frames ordinary sentences ($GPRMC,...).
	DelimitedStart = '$'
	// EncapsulatedStart frames AIS sentences (!AIVDM,...).
	EncapsulatedStart = '!'
)

// encapsulatedPayload is a fixed single-target AIS position report.
const encapsulatedPayload = "AIVDM,1,1,,A,13aG?P0P00PD;88MD5MT?wvl0<0,0"

// Checksum XOR-folds every byte of payload and renders it as two uppercase hex
// digits.
func Checksum(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("%02X", ck)
}

// Valid reports whether line carries a sentence framing character. This is the
// only check that gates forwarding; checksum correctness is tracked separately.
func Valid(line string) bool {
	return strings.HasPrefix(line, "$") || strings.HasPrefix(line, "!")
}

// ChecksumOK reports whether line is framed, carries a "*HH" suffix and the
// suffix matches the payload.
func ChecksumOK(line string) bool {
	line = strings.TrimSpace(line)
	if !Valid(line) {
		return false
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return false
	}
	ck := line[star+1:]
	if len(ck) < 2 {
		return false
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return false
	}
	got := byte(0)
	payload := line[1:star]
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	return got == want[0]
}

// BuildDelimited returns "$" + talker + code + "," + fields + "*HH".
// An empty fields string still produces the trailing comma.
func BuildDelimited(talker, code, fields string) string {
	payload := talker + code + "," + fields
	return "$" + payload + "*" + Checksum(payload)
}

// BuildEncapsulated returns the fixed AIS sentence used by AIS slots.
func BuildEncapsulated() string {
	return "!" + encapsulatedPayload + "*" + Checksum(encapsulatedPayload)
}

// StripChecksum turns a full sentence into its editable form: the framing
// character is kept and everything from the first '*' is dropped.
func StripChecksum(full string) string {
	if full == "" {
		return ""
	}
	if star := strings.IndexByte(full, '*'); star >= 0 {
		return full[:star]
	}
	return full
}

// Normalize re-frames user-edited text and recomputes its checksum.
//
// A leading '$' or '!' is kept; without one, '!' is chosen when the body starts
// with AIVDM/AIVDO and '$' otherwise. Anything from the first '*' is discarded
// before the checksum is appended, so Normalize(StripChecksum(s)) == s for any
// normalized s. Empty input stays empty.
func Normalize(edited string) string {
	s := strings.TrimSpace(edited)
	if s == "" {
		return ""
	}

	var frame byte
	body := s
	if s[0] == DelimitedStart || s[0] == EncapsulatedStart {
		frame = s[0]
		body = s[1:]
	} else {
		frame = DelimitedStart
		up := strings.ToUpper(body)
		if strings.HasPrefix(up, "AIVDM") || strings.HasPrefix(up, "AIVDO") {
			frame = EncapsulatedStart
		}
	}
	if star := strings.IndexByte(body, '*'); star >= 0 {
		body = body[:star]
	}
	return string(frame) + body + "*" + Checksum(body)
}
