package anyconvert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const swatchSize = 96

type rgb struct{ r, g, b uint8 }

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

func (c rgb) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.r, c.g, c.b)
}

func colorUnits() []Unit {
	return []Unit{
		colorUnit("hex-to-rgb", "Hex to RGB", "Convert a hex color (#rgb, #rrggbb) to rgb().", "#ff8800",
			func(s string) (string, error) {
				c, err := parseHexColor(s)
				if err != nil {
					return "", err
				}
				return c.String(), nil
			}),
		colorUnit("rgb-to-hex", "RGB to Hex", "Convert rgb(r, g, b) or \"r, g, b\" to a hex color.", "rgb(255, 136, 0)",
			func(s string) (string, error) {
				c, err := parseRGB(s)
				if err != nil {
					return "", err
				}
				return c.hex(), nil
			}),
		colorUnit("rgb-to-hsl", "RGB to HSL", "Convert an RGB color to hsl(h, s%, l%).", "rgb(255, 136, 0)",
			func(s string) (string, error) {
				c, err := parseRGB(s)
				if err != nil {
					return "", err
				}
				return formatHSL(c), nil
			}),
		colorUnit("hsl-to-rgb", "HSL to RGB", "Convert hsl(h, s%, l%) to rgb() and hex.", "hsl(32, 100%, 50%)",
			func(s string) (string, error) {
				c, err := parseHSL(s)
				if err != nil {
					return "", err
				}
				return c.String() + "\n" + c.hex(), nil
			}),
		colorUnit("hex-to-hsl", "Hex to HSL", "Convert a hex color to hsl(h, s%, l%).", "#ff8800",
			func(s string) (string, error) {
				c, err := parseHexColor(s)
				if err != nil {
					return "", err
				}
				return formatHSL(c), nil
			}),
		colorUnit("rgb-to-cmyk", "RGB to CMYK", "Convert an RGB or hex color to CMYK percentages.", "rgb(255, 136, 0)",
			func(s string) (string, error) {
				c, err := parseColor(s)
				if err != nil {
					return "", err
				}
				return formatCMYK(c), nil
			}),
		colorUnit("cmyk-to-rgb", "CMYK to RGB", "Convert cmyk(c%, m%, y%, k%) to rgb() and hex.", "cmyk(0%, 47%, 100%, 0%)",
			func(s string) (string, error) {
				c, err := parseCMYK(s)
				if err != nil {
					return "", err
				}
				return c.String() + "\n" + c.hex(), nil
			}),
		colorUnit("color-invert", "Color Invert", "Invert a hex or RGB color.", "#ff8800",
			func(s string) (string, error) {
				c, err := parseColor(s)
				if err != nil {
					return "", err
				}
				return rgb{255 - c.r, 255 - c.g, 255 - c.b}.hex(), nil
			}),
		colorUnit("contrast-ratio", "Contrast Ratio", "WCAG contrast ratio of two colors, one per line.", "#ffffff\n#767676",
			contrastReport),
		NewTextUnit(Meta{
			ID:               "color-swatch",
			Name:             "Color Swatch",
			Category:         CategoryColor,
			Description:      "Render a color as a square PNG swatch.",
			Placeholder:      "#ff8800",
			IsMediaConverter: true,
			ShowsPreview:     true,
		}, func(_ context.Context, s string) (Result, error) {
			c, err := parseColor(s)
			if err != nil {
				return nil, err
			}
			data, err := swatchPNG(c)
			if err != nil {
				return nil, fmt.Errorf("encode swatch: %w", err)
			}
			return Artifact("swatch-"+strings.TrimPrefix(c.hex(), "#")+".png", "image/png", data,
				fmt.Sprintf("%s, %d×%d", c.hex(), swatchSize, swatchSize)), nil
		}),
	}
}

func colorUnit(id, name, description, placeholder string, fn func(string) (string, error)) Unit {
	return NewTextUnit(Meta{
		ID:          id,
		Name:        name,
		Category:    CategoryColor,
		Description: description,
		Placeholder: placeholder,
	}, stringFunc(fn))
}

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

func parseHexColor(s string) (rgb, error) {
	m := hexColorPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return rgb{}, Invalidf("not a hex color: %q", strings.TrimSpace(s))
	}
	h := m[1]
	if len(h) <= 4 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	v, _ := strconv.ParseUint(h[:6], 16, 32)
	return rgb{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// colorArgs splits "fn(a, b, c)", "a, b, c" or "a b c" into n numeric arguments, dropping
// percent signs and degree units.
func colorArgs(s, fn string, n int) ([]float64, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(t, fn) {
		t = strings.TrimPrefix(t, fn)
		t = strings.TrimPrefix(t, "a")
		t = strings.TrimSpace(t)
		if !strings.HasPrefix(t, "(") || !strings.HasSuffix(t, ")") {
			return nil, Invalidf("expected %s(...)", fn)
		}
		t = t[1 : len(t)-1]
	}
	t = strings.NewReplacer(",", " ", "/", " ", "%", "", "deg", "").Replace(t)
	fields := strings.Fields(t)
	if len(fields) < n {
		return nil, Invalidf("expected %d values", n)
	}
	vals := make([]float64, n)
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Invalidf("not a number: %q", fields[i])
		}
		vals[i] = v
	}
	return vals, nil
}

func parseRGB(s string) (rgb, error) {
	vals, err := colorArgs(s, "rgb", 3)
	if err != nil {
		return rgb{}, err
	}
	for _, v := range vals {
		if v < 0 || v > 255 {
			return rgb{}, Invalidf("RGB channels must be between 0 and 255")
		}
	}
	return rgb{uint8(math.Round(vals[0])), uint8(math.Round(vals[1])), uint8(math.Round(vals[2]))}, nil
}

// parseColor accepts any of the hex, rgb() or hsl() notations.
func parseColor(s string) (rgb, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case t == "":
		return rgb{}, Invalidf("no color")
	case strings.HasPrefix(t, "hsl"):
		return parseHSL(t)
	case strings.HasPrefix(t, "rgb"), strings.ContainsAny(t, ", "):
		return parseRGB(t)
	}
	return parseHexColor(t)
}

func toHSL(c rgb) (h, s, l float64) {
	r, g, b := float64(c.r)/255, float64(c.g)/255, float64(c.b)/255
	maxC, minC := math.Max(r, math.Max(g, b)), math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2
	d := maxC - minC
	if d == 0 {
		return 0, 0, l
	}
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}
	switch maxC {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, l
}

func formatHSL(c rgb) string {
	h, s, l := toHSL(c)
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", int(math.Round(h))%360, int(math.Round(s*100)), int(math.Round(l*100)))
}

func parseHSL(str string) (rgb, error) {
	vals, err := colorArgs(str, "hsl", 3)
	if err != nil {
		return rgb{}, err
	}
	h, s, l := math.Mod(vals[0], 360), vals[1], vals[2]
	if h < 0 {
		h += 360
	}
	if s < 0 || s > 100 || l < 0 || l > 100 {
		return rgb{}, Invalidf("saturation and lightness must be between 0%% and 100%%")
	}
	return fromHSL(h, s/100, l/100), nil
}

func fromHSL(h, s, l float64) rgb {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	ch := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return rgb{ch(r), ch(g), ch(b)}
}

func formatCMYK(c rgb) string {
	r, g, b := float64(c.r)/255, float64(c.g)/255, float64(c.b)/255
	k := 1 - math.Max(r, math.Max(g, b))
	if k == 1 {
		return "cmyk(0%, 0%, 0%, 100%)"
	}
	pct := func(v float64) int { return int(math.Round(v * 100)) }
	return fmt.Sprintf("cmyk(%d%%, %d%%, %d%%, %d%%)",
		pct((1-r-k)/(1-k)), pct((1-g-k)/(1-k)), pct((1-b-k)/(1-k)), pct(k))
}

func parseCMYK(s string) (rgb, error) {
	vals, err := colorArgs(s, "cmyk", 4)
	if err != nil {
		return rgb{}, err
	}
	for _, v := range vals {
		if v < 0 || v > 100 {
			return rgb{}, Invalidf("CMYK components must be between 0%% and 100%%")
		}
	}
	k := vals[3] / 100
	ch := func(v float64) uint8 { return uint8(math.Round(255 * (1 - v/100) * (1 - k))) }
	return rgb{ch(vals[0]), ch(vals[1]), ch(vals[2])}, nil
}

func relativeLuminance(c rgb) float64 {
	lin := func(v uint8) float64 {
		f := float64(v) / 255
		if f <= 0.03928 {
			return f / 12.92
		}
		return math.Pow((f+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.r) + 0.7152*lin(c.g) + 0.0722*lin(c.b)
}

func contrastReport(s string) (string, error) {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ';' })
	if len(lines) != 2 {
		return "", Invalidf("enter two colors, one per line")
	}
	a, err := parseColor(lines[0])
	if err != nil {
		return "", err
	}
	b, err := parseColor(lines[1])
	if err != nil {
		return "", err
	}
	la, lb := relativeLuminance(a), relativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	ratio := (la + 0.05) / (lb + 0.05)
	verdict := func(threshold float64) string {
		if ratio >= threshold {
			return "pass"
		}
		return "fail"
	}
	return fmt.Sprintf("Contrast ratio: %.2f:1\nAA normal text: %s\nAA large text: %s\nAAA normal text: %s\nAAA large text: %s",
		ratio, verdict(4.5), verdict(3), verdict(7), verdict(4.5)), nil
}

func swatchPNG(c rgb) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, swatchSize, swatchSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: c.r, G: c.g, B: c.b, A: 255}}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
