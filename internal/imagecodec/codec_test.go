package imagecodec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/BaSui01/productshot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func tinyPNG(t testing.TB) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tinyJPEG(t testing.TB) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "valid", input: "aGVsbG8=", want: []byte("hello")},
		{name: "surrounding whitespace", input: "  aGVsbG8=\n", want: []byte("hello")},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "not base64", input: "%%%not-base64%%%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsErrorCode(err, types.ErrDecode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_EncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 512).Draw(rt, "data")
		got, err := Decode(Encode(data))
		if err != nil {
			rt.Fatalf("decode failed: %v", err)
		}
		if !bytes.Equal(got, data) {
			rt.Fatalf("round trip mismatch")
		}
	})
}

func TestDecodeImage(t *testing.T) {
	data, format, err := DecodeImage(Encode(tinyPNG(t)))
	require.NoError(t, err)
	assert.Equal(t, Format("png"), format)
	assert.NotEmpty(t, data)

	_, _, err = DecodeImage(Encode([]byte("definitely not an image")))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrDecode))
}

func TestDetectMIMEAndExtension(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME(tinyPNG(t)))
	assert.Equal(t, "image/jpeg", DetectMIME(tinyJPEG(t)))
	assert.Equal(t, DefaultMimeType, DetectMIME([]byte("plain text")))

	assert.Equal(t, "jpg", Extension("image/jpeg"))
	assert.Equal(t, "gif", Extension("image/gif"))
	assert.Equal(t, "webp", Extension("image/webp"))
	assert.Equal(t, "png", Extension("image/png"))
	assert.Equal(t, "png", Extension(""))
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,aGk=", DataURL("image/jpeg", []byte("hi")))
	assert.Contains(t, DataURL("", tinyPNG(t)), "data:image/png;base64,")
}

func TestToFile(t *testing.T) {
	f := ToFile(tinyJPEG(t), "", "")
	assert.Equal(t, "image.jpg", f.Name)
	assert.Equal(t, "image/jpeg", f.MimeType)

	data, err := io.ReadAll(f.Reader())
	require.NoError(t, err)
	assert.Equal(t, f.Size(), len(data))
	assert.Contains(t, Describe(f), "image.jpg (image/jpeg,")
}

func TestFilterValid(t *testing.T) {
	good := Encode(tinyPNG(t))
	valid, skipped := FilterValid([]string{good, "%%%", Encode([]byte("text")), good})
	assert.Equal(t, []string{good, good}, valid)
	assert.Equal(t, 2, skipped)
}
