package imagecodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/BaSui01/productshot/types"

	_ "golang.org/x/image/webp"
)

// DefaultMimeType 是无法识别时使用的 MIME 类型
const DefaultMimeType = "image/png"

// =============================================================================
// 📦 Base64 编解码
// =============================================================================

// Decode 将 base64 字符串解码为二进制数据。
// 输入不是合法的标准 base64 时返回 DECODE_ERROR。
func Decode(b64 string) ([]byte, error) {
	s := strings.TrimSpace(b64)
	if s == "" {
		return nil, types.NewDecodeError("image payload is empty", nil)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, types.NewDecodeError("invalid base64 image payload", err)
	}
	return data, nil
}

// Encode 将二进制数据编码为标准 base64 字符串。
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURL 返回 data:<mime>;base64,<payload> 形式的内联地址。
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DetectMIME(data)
	}
	return "data:" + mimeType + ";base64," + Encode(data)
}

// =============================================================================
// 🖼️ 格式识别
// =============================================================================

// Format 是 image 注册表返回的格式名（png、jpeg、gif、webp）
type Format string

// Validate 校验数据确实是可解析的图片，只读取图片头部。
func Validate(data []byte) (Format, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", types.NewDecodeError("payload is not a supported image", err)
	}
	return Format(name), nil
}

// DecodeImage 解码并校验一张参考图。
func DecodeImage(b64 string) ([]byte, Format, error) {
	data, err := Decode(b64)
	if err != nil {
		return nil, "", err
	}
	format, err := Validate(data)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// DetectMIME 嗅探数据的 MIME 类型，非图片返回 DefaultMimeType。
func DetectMIME(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return DefaultMimeType
}

// Extension 根据 MIME 类型获取文件扩展名（不含点）
func Extension(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return "jpg"
	case strings.Contains(mimeType, "gif"):
		return "gif"
	case strings.Contains(mimeType, "webp"):
		return "webp"
	default:
		return "png"
	}
}

// =============================================================================
// 📎 Multipart 文件句柄
// =============================================================================

// File 是带文件名与 MIME 的二进制数据，用于 multipart 提交。
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// ToFile 包装二进制数据。mimeType 为空时按内容嗅探。
func ToFile(data []byte, suggestedName, mimeType string) File {
	if mimeType == "" {
		mimeType = DetectMIME(data)
	}
	if suggestedName == "" {
		suggestedName = "image." + Extension(mimeType)
	}
	return File{Name: suggestedName, MimeType: mimeType, Data: data}
}

// Reader 返回数据的只读视图。
func (f File) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

// Size 返回数据字节数。
func (f File) Size() int {
	return len(f.Data)
}

// =============================================================================
// 🧹 宽松过滤
// =============================================================================

// FilterValid 丢弃无法解码的图片，返回保留的条目与跳过数量。
//
// 这是调用方（上传组件）一侧的宽松策略；生成流水线本身使用
// DecodeImage 的严格策略，任何一张坏图都会让请求失败。
func FilterValid(images []string) (valid []string, skipped int) {
	valid = make([]string, 0, len(images))
	for _, img := range images {
		if _, _, err := DecodeImage(img); err != nil {
			skipped++
			continue
		}
		valid = append(valid, img)
	}
	return valid, skipped
}

// Describe 用于日志，避免把整段 base64 打进日志。
func Describe(f File) string {
	return fmt.Sprintf("%s (%s, %d bytes)", f.Name, f.MimeType, f.Size())
}
