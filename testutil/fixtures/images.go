package fixtures

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// PNG 返回一张 w×h 的纯色 PNG
func PNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TinyPNG 返回 2×2 的红色 PNG
func TinyPNG() []byte {
	return PNG(2, 2, color.RGBA{R: 255, A: 255})
}

// TinyPNGBase64 返回 TinyPNG 的标准 base64（不带 data URL 前缀）
func TinyPNGBase64() string {
	return base64.StdEncoding.EncodeToString(TinyPNG())
}

// TinyJPEG 返回 2×2 的 JPEG
func TinyJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TinyJPEGBase64 返回 TinyJPEG 的标准 base64
func TinyJPEGBase64() string {
	return base64.StdEncoding.EncodeToString(TinyJPEG())
}
