package layout

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	chAnsi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
)

var (
	// ANSI escape sequence regex
	ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// Split a string into lines, additionally returning the size of the widest line.
func getLines(s string) (lines []string, widest int) {
	lines = strings.Split(s, "\n")
	for _, l := range lines {
		w := ansi.PrintableRuneWidth(l)
		if widest < w {
			widest = w
		}
	}
	return lines, widest
}

type overlayOptions struct {
	whitespace  *whitespace
	border      bool
	borderColor *lipgloss.AdaptiveColor
}

// OverlayOption sets options for overlay rendering
type OverlayOption func(*overlayOptions)

// PlaceOverlay draws fg over bg with its top-left cell at (x, y).
//
// Unlike a centered dialog, a dropdown must stay glued to the cell it was
// anchored to, so fg is never shifted back inside bg. Whatever part of fg
// falls outside bg (including negative offsets) is cropped instead.
func PlaceOverlay(
	x, y int,
	fg, bg string,
	opts ...OverlayOption,
) string {
	options := &overlayOptions{
		whitespace: &whitespace{},
	}
	for _, opt := range opts {
		opt(options)
	}

	fgLines, fgWidth := getLines(fg)
	bgLines, bgWidth := getLines(bg)

	if options.border {
		for i := range fgLines {
			lineWidth := ansi.PrintableRuneWidth(fgLines[i])
			if lineWidth < fgWidth {
				fgLines[i] += strings.Repeat(" ", fgWidth-lineWidth)
			}
		}
	}

	if y < 0 {
		if -y >= len(fgLines) {
			return bg
		}
		fgLines = fgLines[-y:]
		y = 0
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+len(fgLines) {
			b.WriteString(bgLine)
			continue
		}
		b.WriteString(overlayLine(bgLine, fgLines[i-y], x, bgWidth, options))
	}

	return b.String()
}

func overlayLine(bgLine, fgLine string, x, bgWidth int, options *overlayOptions) string {
	pos := 0
	var b strings.Builder

	if x > 0 {
		if x >= bgWidth {
			return bgLine
		}
		left := truncate.String(bgLine, uint(x))
		pos = ansi.PrintableRuneWidth(left)
		b.WriteString(left)
		if pos < x {
			b.WriteString(options.whitespace.render(x - pos))
			pos = x
		}
	}

	segment := fgLine
	if options.border {
		segment = borderedLine(bgLine, fgLine, pos, options.borderColor)
	}
	if x < 0 {
		segment = cutLeft(segment, -x)
	}

	avail := bgWidth - pos
	if ansi.PrintableRuneWidth(segment) > avail {
		segment = truncate.String(segment, uint(avail))
	}
	b.WriteString(segment)
	pos += ansi.PrintableRuneWidth(segment)

	right := cutLeft(bgLine, pos)
	lineWidth := ansi.PrintableRuneWidth(bgLine)
	rightWidth := ansi.PrintableRuneWidth(right)
	if rightWidth < lineWidth-pos {
		b.WriteString(options.whitespace.render(lineWidth - rightWidth - pos))
	}
	b.WriteString(right)

	return b.String()
}

// borderedLine wraps fgLine in vertical bars that keep the background of
// the cells they replace.
func borderedLine(bgLine, fgLine string, pos int, borderColor *lipgloss.AdaptiveColor) string {
	fgLineWidth := ansi.PrintableRuneWidth(fgLine)

	leftStyle := getStyleAtPosition(bgLine, max(pos-1, 0))
	rightStyle := getStyleAtPosition(bgLine, pos+fgLineWidth)

	var b strings.Builder
	leftSeq := combineStyles(leftStyle, borderColor)
	b.WriteString(leftSeq)
	b.WriteString("┃")
	if leftSeq != "" {
		b.WriteString("\x1b[0m")
	}

	b.WriteString(fgLine)

	rightSeq := combineStyles(rightStyle, borderColor)
	b.WriteString(rightSeq)
	b.WriteString("┃")
	if rightSeq != "" {
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

// cutLeft cuts printable characters from the left.
func cutLeft(s string, cutWidth int) string {
	return chAnsi.Cut(s, cutWidth, lipgloss.Width(s))
}

// ansiStyle represents parsed ANSI style attributes
type ansiStyle struct {
	fgColor string
	bgColor string
	attrs   []string
}

// parseANSISequence parses an SGR escape sequence into its components.
func parseANSISequence(seq string) ansiStyle {
	style := ansiStyle{}

	if !strings.HasPrefix(seq, "\x1b[") || !strings.HasSuffix(seq, "m") {
		return style
	}

	params := seq[2 : len(seq)-1]
	if params == "" {
		return style
	}

	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "0":
			style.attrs = append(style.attrs, "0")
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			style.attrs = append(style.attrs, parts[i])
		case "38", "48":
			var color string
			switch {
			case i+2 < len(parts) && parts[i+1] == "5":
				color = strings.Join(parts[i:i+3], ";")
				i += 2
			case i+4 < len(parts) && parts[i+1] == "2":
				color = strings.Join(parts[i:i+5], ";")
				i += 4
			}
			if strings.HasPrefix(color, "38") {
				style.fgColor = color
			} else if color != "" {
				style.bgColor = color
			}
		case "30", "31", "32", "33", "34", "35", "36", "37",
			"90", "91", "92", "93", "94", "95", "96", "97":
			style.fgColor = parts[i]
		case "40", "41", "42", "43", "44", "45", "46", "47",
			"100", "101", "102", "103", "104", "105", "106", "107":
			style.bgColor = parts[i]
		}
	}

	return style
}

// combineStyles creates an ANSI sequence that combines background from one style with foreground from another
func combineStyles(bgStyle ansiStyle, fgColor *lipgloss.AdaptiveColor) string {
	if fgColor == nil && bgStyle.bgColor == "" && len(bgStyle.attrs) == 0 {
		return ""
	}

	var parts []string
	parts = append(parts, bgStyle.attrs...)
	if bgStyle.bgColor != "" {
		parts = append(parts, bgStyle.bgColor)
	}
	if fgColor != nil {
		// RGBA returns 16-bit channels
		r, g, b, _ := fgColor.RGBA()
		parts = append(parts, fmt.Sprintf("38;2;%d;%d;%d", r>>8, g>>8, b>>8))
	}

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%sm", strings.Join(parts, ";"))
}

// getStyleAtPosition extracts the active ANSI style at a given visual position
func getStyleAtPosition(s string, targetPos int) ansiStyle {
	visualPos := 0
	currentStyle := ansiStyle{}

	i := 0
	for i < len(s) && visualPos <= targetPos {
		if match := ansiRegex.FindStringIndex(s[i:]); match != nil && match[0] == 0 {
			parsed := parseANSISequence(s[i : i+match[1]])
			if len(parsed.attrs) > 0 && parsed.attrs[0] == "0" {
				currentStyle = ansiStyle{}
			} else {
				if parsed.fgColor != "" {
					currentStyle.fgColor = parsed.fgColor
				}
				if parsed.bgColor != "" {
					currentStyle.bgColor = parsed.bgColor
				}
				if len(parsed.attrs) > 0 {
					currentStyle.attrs = parsed.attrs
				}
			}
			i += match[1]
			continue
		}
		if visualPos == targetPos {
			return currentStyle
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		visualPos++
	}

	return currentStyle
}

type whitespace struct {
	style termenv.Style
	chars string
}

// Render whitespaces.
func (w whitespace) render(width int) string {
	if width <= 0 {
		return ""
	}
	if w.chars == "" {
		w.chars = " "
	}

	r := []rune(w.chars)
	j := 0
	b := strings.Builder{}

	for i := 0; i < width; {
		b.WriteRune(r[j])
		i += ansi.PrintableRuneWidth(string(r[j]))
		j++
		if j >= len(r) {
			j = 0
		}
	}

	// Wide runes can leave a one-cell gap.
	short := width - ansi.PrintableRuneWidth(b.String())
	if short > 0 {
		b.WriteString(strings.Repeat(" ", short))
	}

	return w.style.Styled(b.String())
}

// WhitespaceOption sets a styling rule for rendering whitespace.
type WhitespaceOption func(*whitespace)

// WithWhitespaceChars sets the characters used to fill gaps left of the overlay.
func WithWhitespaceChars(s string) WhitespaceOption {
	return func(w *whitespace) {
		w.chars = s
	}
}

// WithWhitespace sets whitespace options for the overlay
func WithWhitespace(opts ...WhitespaceOption) OverlayOption {
	return func(o *overlayOptions) {
		for _, opt := range opts {
			opt(o.whitespace)
		}
	}
}

// WithOverlayBorder enables border rendering for the overlay
func WithOverlayBorder() OverlayOption {
	return func(o *overlayOptions) {
		o.border = true
	}
}

// WithOverlayBorderColor sets the border color for the overlay
func WithOverlayBorderColor(color lipgloss.AdaptiveColor) OverlayOption {
	return func(o *overlayOptions) {
		o.borderColor = &color
	}
}
