package rendering

import (
	"slices"
	"strings"
)

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Margins holds wkhtmltopdf unit strings such as "10mm" or "0.5in".
type Margins struct {
	Top    string `json:"top"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Left   string `json:"left"`
}

// Options are the layout settings a caller may set. Zero values mean "renderer default".
type Options struct {
	Margin      *Margins    `json:"margin,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
	Title       string      `json:"title,omitempty"`
}

// ParseMargin splits "top right bottom left" on single spaces. Anything other than
// exactly four non-empty parts is rejected.
func ParseMargin(raw string) (*Margins, bool) {
	parts := strings.Split(raw, " ")
	if len(parts) != 4 || slices.Contains(parts, "") {
		return nil, false
	}
	return &Margins{Top: parts[0], Right: parts[1], Bottom: parts[2], Left: parts[3]}, true
}

func ParseOrientation(raw string) Orientation {
	if strings.EqualFold(raw, string(OrientationLandscape)) {
		return OrientationLandscape
	}
	return OrientationPortrait
}

// Args converts the options into wkhtmltopdf flags.
func (o Options) Args() []string {
	var args []string
	if o.Margin != nil {
		args = append(args,
			"--margin-top", o.Margin.Top,
			"--margin-right", o.Margin.Right,
			"--margin-bottom", o.Margin.Bottom,
			"--margin-left", o.Margin.Left,
		)
	}
	if o.Orientation != "" {
		args = append(args, "--orientation", string(o.Orientation))
	}
	if o.Title != "" {
		args = append(args, "--title", o.Title)
	}
	return args
}
