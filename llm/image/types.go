// 包图像提供统一的图像生成提供者接口.
package image

import (
	"context"
	"io"
	"time"
)

// 生成请求代表图像生成请求 。
type GenerateRequest struct {
	Prompt         string            `json:"prompt"`
	Model          string            `json:"model,omitempty"`
	N              int               `json:"n,omitempty"`               // Number of images
	Size           string            `json:"size,omitempty"`            // 1024x1024, 1536x1024, etc.
	Quality        string            `json:"quality,omitempty"`         // low, medium, high, auto
	ResponseFormat string            `json:"response_format,omitempty"` // url, b64_json
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// 生成响应(Generate Response)代表图像生成的响应.
type GenerateResponse struct {
	Provider  string      `json:"provider"`
	Model     string      `json:"model"`
	Images    []ImageData `json:"images"`
	Usage     ImageUsage  `json:"usage,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// First 返回第一张图像；没有图像时返回 nil。
func (r *GenerateResponse) First() *ImageData {
	if r == nil {
		return nil
	}
	for i := range r.Images {
		if r.Images[i].HasPayload() {
			return &r.Images[i]
		}
	}
	return nil
}

// ImageData代表生成的图像.
type ImageData struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// HasPayload 报告该条目是否携带图像内容或地址
func (d ImageData) HasPayload() bool {
	return d.B64JSON != "" || d.URL != ""
}

// ImageUsage代表使用统计.
type ImageUsage struct {
	ImagesGenerated int `json:"images_generated"`
	InputTokens     int `json:"input_tokens,omitempty"`
	OutputTokens    int `json:"output_tokens,omitempty"`
}

// InputImage 是编辑请求中的一张输入图
type InputImage struct {
	Name     string
	MimeType string
	Data     io.Reader
}

// 编辑请求代表多图参考编辑请求，Images 按顺序提交.
type EditRequest struct {
	Images         []InputImage      `json:"-"`
	Prompt         string            `json:"prompt"`
	Model          string            `json:"model,omitempty"`
	N              int               `json:"n,omitempty"`
	Size           string            `json:"size,omitempty"`
	Quality        string            `json:"quality,omitempty"`
	ResponseFormat string            `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// 提供方定义了图像生成提供者接口.
type Provider interface {
	// 从文本提示生成图像 。
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Edit 以一组参考图为输入生成新图像。
	Edit(ctx context.Context, req *EditRequest) (*GenerateResponse, error)

	// 名称返回提供者名称 。
	Name() string
}
