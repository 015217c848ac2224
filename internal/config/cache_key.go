package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamSnapshotKey returns the cache key for an exam's frozen answer key.
func (r *CacheKeyStruct) ExamSnapshotKey(examID int64) string {
	return fmt.Sprintf("exam:%d:snapshot", examID)
}

// ExamDurationKey returns the cache key for an exam's duration in minutes.
func (r *CacheKeyStruct) ExamDurationKey(examID int64) string {
	return fmt.Sprintf("exam:%d:duration", examID)
}

var CacheKey = NewCacheKeyStruct()
