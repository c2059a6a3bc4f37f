// =============================================================================
// 📦 测试数据工厂 - LLM 响应测试数据
// =============================================================================
package fixtures

import (
	"time"

	"github.com/BaSui01/productshot/llm"
)

// SimpleResponse 返回简单的文本响应
func SimpleResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:       "resp-001",
		Provider: "mock",
		Model:    "gpt-4",
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "stop",
				Message: llm.Message{
					Role:    llm.RoleAssistant,
					Content: content,
				},
			},
		},
		Usage: llm.ChatUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
		CreatedAt: time.Now(),
	}
}

// EmptyResponse 返回没有任何选项的响应
func EmptyResponse() *llm.ChatResponse {
	return &llm.ChatResponse{ID: "resp-empty", Provider: "mock", Model: "gpt-4"}
}
