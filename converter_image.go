package anyconvert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	maxImagePixels   = 50_000_000
	maxResizeSide    = 10000
	defaultJPEG      = 90
	qrSize           = 256
	maxQRInputLength = 2048
	imageAcceptTypes = "image/*"
)

func imageUnits(env Env) []Unit {
	return []Unit{
		NewFileUnit(Meta{
			ID:          "image-info",
			Name:        "Image Info",
			Category:    CategoryImage,
			Description: "Show format, dimensions and color model of an image.",
			AcceptTypes: imageAcceptTypes,
		}, func(_ context.Context, f File, _ string) (Result, error) {
			cfg, format, err := image.DecodeConfig(f.Reader())
			if err != nil {
				return nil, Invalidf("not a supported image (PNG, JPEG, GIF, BMP, TIFF, WebP)")
			}
			return Text(fmt.Sprintf("Format: %s\nDimensions: %d×%d\nMegapixels: %.2f\nColor model: %s\nFile size: %s",
				strings.ToUpper(format), cfg.Width, cfg.Height, float64(cfg.Width*cfg.Height)/1e6,
				colorModelName(cfg.ColorModel), humanBytes(f.Size()))), nil
		}),
		NewFileUnit(imageMeta("image-resize", "Resize Image",
			"Resize an image to a width (keeping the aspect ratio) or to WIDTHxHEIGHT.",
			"Width or WIDTHxHEIGHT, e.g. 800 or 800x600"),
			func(_ context.Context, f File, aux string) (Result, error) {
				img, format, err := decodeImage(f)
				if err != nil {
					return nil, err
				}
				w, h, err := targetSize(aux, img.Bounds().Dx(), img.Bounds().Dy())
				if err != nil {
					return nil, err
				}
				dst := image.NewRGBA(image.Rect(0, 0, w, h))
				draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
				return imageArtifact(dst, f.Name, format, defaultJPEG, fmt.Sprintf("Resized to %d×%d", w, h))
			}),
		convertImageUnit("image-to-png", "Convert to PNG", "png"),
		NewFileUnit(imageMeta("image-to-jpeg", "Convert to JPEG",
			"Re-encode an image as JPEG. Transparent areas become white.",
			"Quality 1-100 (default 90)"),
			func(_ context.Context, f File, aux string) (Result, error) {
				img, _, err := decodeImage(f)
				if err != nil {
					return nil, err
				}
				quality := defaultJPEG
				if q := strings.TrimSpace(aux); q != "" {
					quality, err = strconv.Atoi(q)
					if err != nil || quality < 1 || quality > 100 {
						return nil, Invalidf("quality must be a number from 1 to 100")
					}
				}
				return imageArtifact(flatten(img), f.Name, "jpeg", quality, fmt.Sprintf("JPEG quality %d", quality))
			}),
		convertImageUnit("image-to-gif", "Convert to GIF", "gif"),
		convertImageUnit("image-to-bmp", "Convert to BMP", "bmp"),
		NewFileUnit(Meta{
			ID:               "image-grayscale",
			Name:             "Grayscale Image",
			Category:         CategoryImage,
			Description:      "Convert an image to shades of gray.",
			AcceptTypes:      imageAcceptTypes,
			IsMediaConverter: true,
			ShowsPreview:     true,
		}, func(_ context.Context, f File, _ string) (Result, error) {
			img, format, err := decodeImage(f)
			if err != nil {
				return nil, err
			}
			gray := image.NewGray(img.Bounds())
			draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
			return imageArtifact(gray, f.Name, format, defaultJPEG, "Grayscale")
		}),
		NewFileUnit(imageMeta("image-rotate", "Rotate Image",
			"Rotate an image clockwise by 90, 180 or 270 degrees.",
			"Degrees: 90, 180 or 270 (default 90)"),
			func(_ context.Context, f File, aux string) (Result, error) {
				deg := 90
				if a := strings.TrimSuffix(strings.TrimSpace(aux), "°"); a != "" {
					var err error
					if deg, err = strconv.Atoi(a); err != nil {
						return nil, Invalidf("rotation must be 90, 180 or 270")
					}
				}
				deg = ((deg % 360) + 360) % 360
				if deg != 90 && deg != 180 && deg != 270 {
					return nil, Invalidf("rotation must be 90, 180 or 270")
				}
				img, format, err := decodeImage(f)
				if err != nil {
					return nil, err
				}
				return imageArtifact(rotate(img, deg), f.Name, format, defaultJPEG, fmt.Sprintf("Rotated %d°", deg))
			}),
		NewFileUnit(imageMeta("image-flip", "Flip Image",
			"Mirror an image horizontally or vertically.",
			"horizontal or vertical (default horizontal)"),
			func(_ context.Context, f File, aux string) (Result, error) {
				dir := strings.ToLower(strings.TrimSpace(aux))
				var vertical bool
				switch dir {
				case "", "h", "horizontal":
					dir = "horizontal"
				case "v", "vertical":
					vertical = true
					dir = "vertical"
				default:
					return nil, Invalidf("direction must be horizontal or vertical")
				}
				img, format, err := decodeImage(f)
				if err != nil {
					return nil, err
				}
				return imageArtifact(flip(img, vertical), f.Name, format, defaultJPEG, "Flipped "+dir)
			}),
		NewFileUnit(Meta{
			ID:           "image-to-data-url",
			Name:         "Image to Data URL",
			Category:     CategoryImage,
			Description:  "Encode an image as a base64 data: URL for inlining in HTML or CSS.",
			AcceptTypes:  imageAcceptTypes,
			ShowsPreview: true,
		}, func(_ context.Context, f File, _ string) (Result, error) {
			_, format, err := image.DecodeConfig(f.Reader())
			if err != nil {
				return nil, Invalidf("not a supported image")
			}
			return Text(Artifact(f.Name, "image/"+format, f.Data, "").URL()), nil
		}),
		NewTextUnit(Meta{
			ID:               "qr-generate",
			Name:             "QR Code Generator",
			Category:         CategoryImage,
			Description:      "Render text or a URL as a QR code PNG.",
			Placeholder:      "https://example.com",
			IsMediaConverter: true,
			ShowsPreview:     true,
		}, func(_ context.Context, s string) (Result, error) {
			if s == "" {
				return nil, Invalidf("nothing to encode")
			}
			if len(s) > maxQRInputLength {
				return nil, Invalidf("text too long for a QR code (max %d bytes)", maxQRInputLength)
			}
			enc, err := env.Codecs.QREncoder()
			if err != nil {
				return nil, err
			}
			data, err := enc.EncodePNG(s, qrSize)
			if err != nil {
				return nil, err
			}
			return Artifact("qrcode.png", "image/png", data, fmt.Sprintf("%d×%d", qrSize, qrSize)), nil
		}),
	}
}

func imageMeta(id, name, description, auxPlaceholder string) Meta {
	return Meta{
		ID:               id,
		Name:             name,
		Category:         CategoryImage,
		Description:      description,
		AcceptTypes:      imageAcceptTypes,
		HasTextInput:     auxPlaceholder != "",
		TextPlaceholder:  auxPlaceholder,
		IsMediaConverter: true,
		ShowsPreview:     true,
	}
}

func convertImageUnit(id, name, format string) Unit {
	return NewFileUnit(imageMeta(id, name, "Re-encode an image as "+strings.ToUpper(format)+".", ""),
		func(_ context.Context, f File, _ string) (Result, error) {
			img, _, err := decodeImage(f)
			if err != nil {
				return nil, err
			}
			return imageArtifact(img, f.Name, format, defaultJPEG, "Converted to "+strings.ToUpper(format))
		})
}

// decodeImage checks the pixel limit against the header before decoding the full image.
func decodeImage(f File) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(f.Reader())
	if err != nil {
		return nil, "", Invalidf("not a supported image (PNG, JPEG, GIF, BMP, TIFF, WebP)")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, "", Invalidf("image too large (%d×%d)", cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(f.Reader())
	if err != nil {
		return nil, "", invalidWrap("image data is corrupt", err)
	}
	return img, format, nil
}

// targetSize parses "800" or "800x600" against the source dimensions.
func targetSize(size string, srcW, srcH int) (int, int, error) {
	size = strings.ToLower(strings.TrimSpace(size))
	if size == "" {
		return 0, 0, Invalidf("enter a width such as 800, or WIDTHxHEIGHT")
	}
	ws, hs, hasH := strings.Cut(strings.ReplaceAll(size, "×", "x"), "x")
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil || w < 1 {
		return 0, 0, Invalidf("invalid width %q", ws)
	}
	h := 0
	if hasH {
		if h, err = strconv.Atoi(strings.TrimSpace(hs)); err != nil || h < 1 {
			return 0, 0, Invalidf("invalid height %q", hs)
		}
	} else {
		h = max(1, (srcH*w+srcW/2)/srcW)
	}
	if w > maxResizeSide || h > maxResizeSide {
		return 0, 0, Invalidf("target size too large (max %d px per side)", maxResizeSide)
	}
	return w, h, nil
}

// imageArtifact encodes img in format; formats without an encoder fall back to PNG.
func imageArtifact(img image.Image, name, format string, quality int, info string) (Result, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		format = "png"
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	ext := "." + format
	if format == "jpeg" {
		ext = ".jpg"
	}
	return Artifact(outputName(name, "image", ext), "image/"+format, buf.Bytes(), info), nil
}

// flatten composites img over white, for encoders without alpha.
func flatten(img image.Image) image.Image {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst
}

func rotate(img image.Image, deg int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if deg == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			switch deg {
			case 90:
				dst.Set(h-1-y, x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}

func flip(img image.Image, vertical bool) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if vertical {
				dst.Set(x, h-1-y, c)
			} else {
				dst.Set(w-1-x, y, c)
			}
		}
	}
	return dst
}

func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "Paletted"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA (16-bit)"
	case color.GrayModel:
		return "Grayscale"
	case color.Gray16Model:
		return "Grayscale (16-bit)"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	}
	return "Other"
}
