package nmea

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"$GPRMC,123519,A":    GPS,
		"$GNGGA,1":           GPS,
		"$gpgll,1":           GPS,
		"$SDDBT,036.4,f":     Sounder,
		"$IIMWV,054.7,R":     Weather,
		"$HCHDT,238.5,T":     Heading,
		"$VWVHW,1":           Speed,
		"$RATTM,1":           Radar,
		"$IIXDR,C":           Transducer,
		"!AIVDM,1,1":         AIS,
		"!":                  AIS,
		"$GPXYZ,1":           Other,
		"$GPRM":              Other,
		"GPRMC,123519":       Other,
		"":                   Other,
		"[GPS] $GPRMC,12345": Other,
	}
	for line, want := range cases {
		require.Equal(t, want, Classify(line), "Classify(%q)", line)
	}
}

func TestClassify_DependsOnlyOnFramingAndFormatter(t *testing.T) {
	pairs := [][2]string{
		{"$GPRMC", "$XXRMC,totally,different*00"},
		{"$IIXDR,1,2,3", "$ZZXDRgarbage"},
		{"$GPFOO,1", "$QQFOO"},
		{"!AIVDM,1", "!garbage"},
	}
	for _, p := range pairs {
		require.Equal(t, Classify(p[0]), Classify(p[1]), "%q vs %q", p[0], p[1])
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(strings.ToLower(c.String()))
		require.True(t, ok)
		require.Equal(t, c, got)
	}
	got, ok := ParseCategory("VELOCITY")
	require.True(t, ok)
	require.Equal(t, Speed, got)
	got, ok = ParseCategory("custom")
	require.True(t, ok)
	require.Equal(t, Other, got)
	_, ok = ParseCategory("LIDAR")
	require.False(t, ok)
}

func TestCategory_TextRoundTrip(t *testing.T) {
	var c Category
	require.NoError(t, c.UnmarshalText([]byte("heading")))
	require.Equal(t, Heading, c)
	b, err := c.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "HEADING", string(b))
	require.Error(t, c.UnmarshalText([]byte("nope")))
	require.Equal(t, "Category(42)", Category(42).String())
}

func TestTemplateFor_Catalog(t *testing.T) {
	require.Equal(t,
		"$GPRMC,123519,A,4807.038,N,01131.000,E,5.5,054.7,230394,003.1,W*"+
			Checksum("GPRMC,123519,A,4807.038,N,01131.000,E,5.5,054.7,230394,003.1,W"),
		TemplateFor(GPS, "RMC"))
	require.Equal(t, "$HCHDT,238.5,T*"+Checksum("HCHDT,238.5,T"), TemplateFor(Heading, "hdt"))
	require.Equal(t, "$IIVHW,054.7,T,034.4,M,5.5,N,10.2,K*"+Checksum("IIVHW,054.7,T,034.4,M,5.5,N,10.2,K"), TemplateFor(Speed, "VHW"))
	require.Equal(t, "$SDDPT,11.2,0.5*"+Checksum("SDDPT,11.2,0.5"), TemplateFor(Sounder, "DPT"))
	require.Equal(t, BuildEncapsulated(), TemplateFor(AIS, "AIVDO"))
}

func TestTemplateFor_EveryCatalogEntryClassifiesBack(t *testing.T) {
	for _, c := range Categories {
		if c == Other || c == AIS {
			continue
		}
		for _, code := range Codes(c) {
			s := TemplateFor(c, code)
			require.True(t, ChecksumOK(s), s)
			require.Equal(t, c, Classify(s), s)
		}
	}
}

func TestTemplateFor_FreeText(t *testing.T) {
	require.Equal(t, "", TemplateFor(Other, "RMC"))
	require.Equal(t, "", TemplateFor(GPS, CustomCode))
	require.Equal(t, "", TemplateFor(GPS, "custom"))
}

func TestTemplateFor_UnknownFallsBackToEmptyFields(t *testing.T) {
	s := TemplateFor(GPS, "XYZ")
	require.Equal(t, "$GPXYZ,*"+Checksum("GPXYZ,"), s)
	s = TemplateFor(Radar, "RMC")
	require.Equal(t, "$IIRMC,*"+Checksum("IIRMC,"), s)
}

func TestCodesAndKnown(t *testing.T) {
	require.Equal(t, []string{"GLL", "RMC", "VTG", "GGA", "GSA", "GSV", "DTM", "ZDA"}, Codes(GPS))
	require.Equal(t, []string{"AIVDM", "AIVDO"}, Codes(AIS))
	require.Equal(t, []string{CustomCode}, Codes(Other))
	require.True(t, Known(Transducer, "xdr"))
	require.False(t, Known(Transducer, "RMC"))
	require.True(t, Known(Other, CustomCode))

	// Callers get a copy.
	c := Codes(AIS)
	c[0] = "MUTATED"
	require.Equal(t, "AIVDM", Codes(AIS)[0])
}

func TestTalkerFor(t *testing.T) {
	require.Equal(t, "GP", TalkerFor(GPS))
	require.Equal(t, "AI", TalkerFor(AIS))
	require.Equal(t, "SD", TalkerFor(Sounder))
	require.Equal(t, "HC", TalkerFor(Heading))
	require.Equal(t, "", TalkerFor(Other))
	for _, c := range []Category{Weather, Speed, Radar, Transducer} {
		require.Equal(t, "II", TalkerFor(c))
	}
}
