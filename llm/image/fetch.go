package image

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/BaSui01/productshot/llm/providers"
)

// MaxFetchBytes 限制下载结果图的大小
const MaxFetchBytes = 32 << 20

// Fetch 下载只以 URL 形式返回的结果图。
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download failed: status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxFetchBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxFetchBytes)
	}
	return data, nil
}
