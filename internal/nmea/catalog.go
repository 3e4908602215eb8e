package nmea

import "strings"

// CustomCode is the sentence code of free-text slots.
const CustomCode = "CUSTOM"

// CustomPlaceholder seeds the editor of a free-text slot that has no text yet.
const CustomPlaceholder = "$GPCUS,FIELD1,FIELD2"

type template struct {
	code   string
	fields string
}

// catalog holds the fixed field strings per category, in display order.
var catalog = map[Category][]template{
	GPS: {
		{"GLL", "4916.45,N,12311.12,W,225444,A"},
		{"RMC", "123519,A,4807.038,N,01131.000,E,5.5,054.7,230394,003.1,W"},
		{"VTG", "054.7,T,034.4,M,005.5,N,010.2,K"},
		{"GGA", "123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"},
		{"GSA", "A,3,04,05,09,12,24,25,29,31,,,,,2.5,1.3,2.1"},
		{"GSV", "2,1,08,01,40,083,41,02,17,308,43,12,07,021,42,14,25,110,45"},
		{"DTM", "W84,,0.0,N,0.0,E,0.0,W84"},
		{"ZDA", "201530.00,04,07,2002,00,00"},
	},
	Weather: {
		{"MWD", "054.7,T,034.4,M,10.5,N,5.4,M"},
		{"MWV", "054.7,R,10.5,N,A"},
		{"VWR", "054.7,R,10.5,N,5.4,M,19.4,K"},
		{"VWT", "054.7,T,10.5,N,5.4,M,19.4,K"},
		{"MTW", "18.0,C"},
	},
	Heading: {
		{"HDG", "238.5,,E,0.5"},
		{"HDT", "238.5,T"},
		{"HDM", "236.9,M"},
		{"THS", "238.5,A"},
		{"ROT", "0.0,A"},
		{"RSA", "0.0,A,0.0,A"},
	},
	Sounder: {
		{"DBT", "036.4,f,011.1,M,006.0,F"},
		{"DPT", "11.2,0.5"},
		{"DBK", "036.4,f,011.1,M,006.0,F"},
		{"DBS", "036.4,f,011.1,M,006.0,F"},
	},
	Speed: {
		{"VHW", "054.7,T,034.4,M,5.5,N,10.2,K"},
		{"VLW", "12.4,N,0.5,N"},
		{"VBW", "5.5,0.1,0.0,5.3,0.1,0.0"},
	},
	Radar: {
		{"TLL", "1,4916.45,N,12311.12,W,225444,TGT1"},
		{"TTM", "1,2.5,N,054.7,T,0.0,N,054.7,T,0.0,54.7,TGT1"},
		{"TLB", "1,LOCK,4916.45,N,12311.12,W,225444"},
		{"OSD", "054.7,A,5.5,N,10.2,K"},
	},
	Transducer: {
		{"XDR", "C,19.5,C,AirTemp"},
	},
}

// aisCodes are selectable for AIS slots; both produce the fixed encapsulated
// sentence.
var aisCodes = []string{"AIVDM", "AIVDO"}

// TalkerFor returns the talker ID used when building sentences for c.
func TalkerFor(c Category) string {
	switch c {
	case GPS:
		return "GP"
	case AIS:
		return "AI"
	case Sounder:
		return "SD"
	case Heading:
		return "HC"
	case Other:
		return ""
	default:
		return "II"
	}
}

// Codes lists the sentence codes selectable for c. Other only offers
// CustomCode.
func Codes(c Category) []string {
	switch c {
	case AIS:
		return append([]string(nil), aisCodes...)
	case Other:
		return []string{CustomCode}
	}
	ts := catalog[c]
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.code)
	}
	if len(out) == 0 {
		out = append(out, CustomCode)
	}
	return out
}

// Known reports whether (c, code) has a catalog template.
func Known(c Category, code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, v := range Codes(c) {
		if v == code {
			return true
		}
	}
	return false
}

// TemplateFor builds the template sentence for (c, code).
//
// Free-text slots (Other, or code CUSTOM) return "" and the caller must supply
// the text. Unknown pairs fall back to an empty-fields sentence so generation
// is never blocked.
func TemplateFor(c Category, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c == Other || code == CustomCode {
		return ""
	}
	if c == AIS {
		return BuildEncapsulated()
	}
	talker := TalkerFor(c)
	for _, t := range catalog[c] {
		if t.code == code {
			return BuildDelimited(talker, code, t.fields)
		}
	}
	return BuildDelimited(talker, code, "")
}
