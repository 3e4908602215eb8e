package nmea

import (
	"fmt"
	"strings"
)

// Category is the coarse bucket a sentence formatter maps to.
type Category uint8

const (
	GPS Category = iota
	Weather
	Heading
	Sounder
	Speed
	Radar
	Transducer
	AIS
	// Other collects unknown formatters. As a slot sensor it is the free-text
	// category: the user supplies the whole sentence.
	Other
)

// Categories lists every Category in display order.
var Categories = []Category{GPS, Weather, Heading, Sounder, Speed, Radar, Transducer, AIS, Other}

var categoryNames = [...]string{
	GPS:        "GPS",
	Weather:    "WEATHER",
	Heading:    "HEADING",
	Sounder:    "SOUNDER",
	Speed:      "SPEED",
	Radar:      "RADAR",
	Transducer: "TRANSDUCER",
	AIS:        "AIS",
	Other:      "OTHER",
}

// Older front-ends used different names for two of the buckets.
var categoryAliases = map[string]Category{
	"VELOCITY": Speed,
	"CUSTOM":   Other,
	"OTROS":    Other,
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// ParseCategory accepts the canonical names (case-insensitive) and the legacy
// aliases VELOCITY, CUSTOM and OTROS.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), true
		}
	}
	if c, ok := categoryAliases[s]; ok {
		return c, true
	}
	return Other, false
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("nmea: unknown category %q", string(b))
	}
	*c = v
	return nil
}

// formatterCategory maps the 3-character formatter to its bucket.
var formatterCategory = map[string]Category{
	"GLL": GPS, "RMC": GPS, "VTG": GPS, "GGA": GPS,
	"GSA": GPS, "GSV": GPS, "DTM": GPS, "ZDA": GPS,

	"DBT": Sounder, "DPT": Sounder, "DBK": Sounder, "DBS": Sounder,

	"MWD": Weather, "MWV": Weather, "VWR": Weather, "VWT": Weather, "MTW": Weather,

	"HDG": Heading, "HDT": Heading, "HDM": Heading,
	"THS": Heading, "ROT": Heading, "RSA": Heading,

	"VHW": Speed, "VLW": Speed, "VBW": Speed,

	"TLL": Radar, "TTM": Radar, "TLB": Radar, "OSD": Radar,

	"XDR": Transducer,
}

// Classify buckets a raw bus line. Encapsulated lines are always AIS; delimited
// lines are looked up by line[3:6]. Anything else is Other.
func Classify(line string) Category {
	if strings.HasPrefix(line, "!") {
		return AIS
	}
	if len(line) >= 6 && line[0] == DelimitedStart {
		if c, ok := formatterCategory[strings.ToUpper(line[3:6])]; ok {
			return c
		}
	}
	return Other
}
