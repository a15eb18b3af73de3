package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMargin(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
		want *Margins
	}{
		{"four parts", "10mm 5mm 10mm 5mm", true, &Margins{"10mm", "5mm", "10mm", "5mm"}},
		{"three parts", "10mm 5mm 10mm", false, nil},
		{"five parts", "1 2 3 4 5", false, nil},
		{"empty", "", false, nil},
		{"double space leaves an empty part", "1  2 3", false, nil},
		{"empty third part", "1 2  4", false, nil},
		{"trailing space", "1 2 3 ", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMargin(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOrientation(t *testing.T) {
	assert.Equal(t, OrientationLandscape, ParseOrientation("landscape"))
	assert.Equal(t, OrientationLandscape, ParseOrientation("LandScape"))
	assert.Equal(t, OrientationPortrait, ParseOrientation("portrait"))
	assert.Equal(t, OrientationPortrait, ParseOrientation("sideways"))
	assert.Equal(t, OrientationPortrait, ParseOrientation(""))
}

func TestOptionsArgs(t *testing.T) {
	t.Run("empty options add nothing", func(t *testing.T) {
		assert.Empty(t, Options{}.Args())
	})

	t.Run("all options", func(t *testing.T) {
		margin, ok := ParseMargin("1cm 2cm 3cm 4cm")
		require.True(t, ok)
		opts := Options{Margin: margin, Orientation: OrientationLandscape, Title: "March invoice"}

		assert.Equal(t, []string{
			"--margin-top", "1cm",
			"--margin-right", "2cm",
			"--margin-bottom", "3cm",
			"--margin-left", "4cm",
			"--orientation", "landscape",
			"--title", "March invoice",
		}, opts.Args())
	})
}
