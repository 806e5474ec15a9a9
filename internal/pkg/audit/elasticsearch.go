package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/mantadrive/mantadrive/internal/models"
)

const DefaultIndex = "share-access"

// esDocument 写入 Elasticsearch 的文档结构
type esDocument struct {
	ShareID       string    `json:"share_id"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
	ClientIP      string    `json:"client_ip,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	DownloadCount uint32    `json:"download_count"`
	Timestamp     time.Time `json:"@timestamp"`
}

// ESRecorder 把访问事件镜像到 Elasticsearch 索引
type ESRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewESRecorder(client *elasticsearch.Client, index string) *ESRecorder {
	if index == "" {
		index = DefaultIndex
	}
	return &ESRecorder{client: client, index: index}
}

func (r *ESRecorder) Record(ctx context.Context, entry *models.ShareAccessLog) error {
	body, err := json.Marshal(esDocument{
		ShareID:       entry.ShareID,
		Outcome:       entry.Outcome,
		Reason:        entry.Reason,
		ClientIP:      entry.ClientIP,
		UserAgent:     entry.UserAgent,
		DownloadCount: entry.DownloadCount,
		Timestamp:     entry.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("序列化审计文档失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index: r.index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("写入 Elasticsearch 失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elasticsearch 返回错误 %s: %s", res.Status(), msg)
	}
	return nil
}
