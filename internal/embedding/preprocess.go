package embedding

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageNet channel means in BGR order, as subtracted by ResNet50's
// "caffe" preprocessing.
var imagenetMeanBGR = [3]float32{103.939, 116.779, 123.68}

// DecodeImage decodes a JPEG, PNG, GIF or WebP image.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// PreprocessResNet resizes img to size×size (transparent areas become white)
// and returns an NHWC float32 tensor in BGR order with the ImageNet means
// subtracted.
func PreprocessResNet(img image.Image, size int) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	out := make([]float32, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := dst.RGBAAt(x, y)
			i := (y*size + x) * 3
			out[i] = float32(px.B) - imagenetMeanBGR[0]
			out[i+1] = float32(px.G) - imagenetMeanBGR[1]
			out[i+2] = float32(px.R) - imagenetMeanBGR[2]
		}
	}
	return out
}
