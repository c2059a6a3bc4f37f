package history

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/productshot/pipeline"
	"github.com/google/uuid"
)

// Record 是一行生成历史
type Record struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Prompt        string     `gorm:"type:text;not null" json:"prompt"`
	RefinedPrompt string     `gorm:"type:text" json:"refinedPrompt,omitempty"`
	Mode          string     `gorm:"type:varchar(16);not null" json:"mode"`
	Status        string     `gorm:"type:varchar(16);not null;index" json:"status"`
	ImageURL      string     `gorm:"type:text" json:"imageUrl,omitempty"`
	ImageKey      string     `gorm:"type:varchar(255)" json:"imageKey,omitempty"`
	ReferenceURLs StringList `gorm:"type:text" json:"referenceUrls,omitempty"`
	ErrorCode     string     `gorm:"type:varchar(64)" json:"errorCode,omitempty"`
	ErrorMessage  string     `gorm:"type:text" json:"errorMessage,omitempty"`
	DurationMs    int64      `gorm:"not null" json:"durationMs"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
}

// TableName 固定表名，与迁移文件一致
func (Record) TableName() string { return "generation_records" }

// FromOutcome 把流水线结果转换为历史行
func FromOutcome(o pipeline.Outcome) Record {
	created := o.StartedAt
	if created.IsZero() {
		created = time.Now()
	}
	return Record{
		ID:            uuid.NewString(),
		Prompt:        o.Prompt,
		RefinedPrompt: o.RefinedPrompt,
		Mode:          o.Mode,
		Status:        o.Status,
		ImageURL:      o.ImageURL,
		ImageKey:      o.ImageKey,
		ReferenceURLs: StringList(o.ReferenceURLs),
		ErrorCode:     o.ErrorCode,
		ErrorMessage:  o.ErrorMessage,
		DurationMs:    o.Duration.Milliseconds(),
		CreatedAt:     created.UTC(),
	}
}

// StringList 以 JSON 文本存储的字符串列表
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("history: cannot scan %T into StringList", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("history: invalid reference list: %w", err)
	}
	if len(out) == 0 {
		out = nil
	}
	*l = out
	return nil
}
