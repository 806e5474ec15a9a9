// Package storagetest 提供进程内的 StorageService 实现, 供测试使用
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/mantadrive/mantadrive/internal/pkg/storage"
)

// Object 内存中的对象
type Object struct {
	Data        []byte
	ContentType string
}

// Presign 一次预签名调用的参数
type Presign struct {
	Bucket       string
	Key          string
	Expiry       time.Duration
	DownloadName string
}

// MemoryStorage 线程安全, 预签名返回 memory:// 链接并记录调用参数
type MemoryStorage struct {
	mu       sync.Mutex
	bucket   string
	buckets  map[string]map[string]Object
	presigns []Presign

	// PresignErr / PutErr 非空时对应操作直接返回该错误
	PresignErr error
	PutErr     error
}

var _ storage.StorageService = (*MemoryStorage)(nil)

func NewMemoryStorage(bucket string) *MemoryStorage {
	return &MemoryStorage{
		bucket:  bucket,
		buckets: map[string]map[string]Object{bucket: {}},
	}
}

func (m *MemoryStorage) BucketName() string {
	return m.bucket
}

func (m *MemoryStorage) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) (storage.PutObjectResult, error) {
	if m.PutErr != nil {
		return storage.PutObjectResult{}, m.PutErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return storage.PutObjectResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucketName]
	if !ok {
		return storage.PutObjectResult{}, fmt.Errorf("bucket %s does not exist", bucketName)
	}
	b[objectName] = Object{Data: data, ContentType: contentType}
	return storage.PutObjectResult{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (m *MemoryStorage) RemoveObject(ctx context.Context, bucketName, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucketName], objectName)
	return nil
}

func (m *MemoryStorage) IsBucketExist(ctx context.Context, bucketName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buckets[bucketName]
	return ok, nil
}

func (m *MemoryStorage) MakeBucket(ctx context.Context, bucketName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucketName]; !ok {
		m.buckets[bucketName] = map[string]Object{}
	}
	return nil
}

func (m *MemoryStorage) PresignGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, downloadName string) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	if expiry <= 0 {
		return "", errors.New("expiry must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presigns = append(m.presigns, Presign{Bucket: bucketName, Key: objectName, Expiry: expiry, DownloadName: downloadName})
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", int64(expiry.Seconds())))
	return (&url.URL{Scheme: "memory", Host: bucketName, Path: "/" + objectName, RawQuery: q.Encode()}).String(), nil
}

// Object 返回对象副本
func (m *MemoryStorage) Object(bucketName, objectName string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.buckets[bucketName][objectName]
	if ok {
		obj.Data = bytes.Clone(obj.Data)
	}
	return obj, ok
}

// Keys 返回桶内排好序的对象名
func (m *MemoryStorage) Keys(bucketName string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.buckets[bucketName]))
	for k := range m.buckets[bucketName] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Presigns 返回全部预签名调用记录
func (m *MemoryStorage) Presigns() []Presign {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Presign(nil), m.presigns...)
}
