package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sample 查询结果样本
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// QueryResult 查询结果
type QueryResult struct {
	Metric map[string]string `json:"metric"`
	Value  Sample            `json:"value,omitempty"`
	Values []Sample          `json:"values,omitempty"`
}

// DataSource 监控数据源
type DataSource struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Name        string     `json:"name" gorm:"size:128;not null"`
	Type        string     `json:"type" gorm:"size:32;not null"` // prometheus, victoria-metrics
	Description string     `json:"description" gorm:"size:512"`
	Endpoint    string     `json:"endpoint" gorm:"size:512;not null"`
	Config      string     `json:"config" gorm:"type:jsonb"` // 额外配置
	Status      int        `json:"status" gorm:"default:1"`  // 0: disabled, 1: enabled
	HealthStatus string   `json:"health_status" gorm:"size:32;default:unknown"` // unknown, healthy, unhealthy
	LastCheckAt *time.Time `json:"last_check_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FiringAlert 正在触发的告警
type FiringAlert struct {
	RuleID      uuid.UUID            `json:"rule_id"`
	RuleName    string               `json:"rule_name"`
	Severity    string               `json:"severity"`
	Fingerprint string               `json:"fingerprint"`
	Labels      map[string]string    `json:"labels"`
	Annotations map[string]string    `json:"annotations"`
	StartsAt    time.Time           `json:"starts_at"`
	EndsAt      *time.Time          `json:"ends_at,omitempty"`
	Value       float64              `json:"value"`
	Status      string               `json:"status"` // firing, resolved
}

// GenerateFingerprint 生成告警指纹
func GenerateFingerprint(labels map[string]string) string {
	data, _ := json.Marshal(labels)
	return string(data)
}

// MetricProbe is a PromQL/MetricsQL expression polled against a
// DataSource and translated into an Alert ingest, replacing the
// teacher's AlertRule (periodic threshold -> AlertHistory row) now
// that firing/resolving is the stateful Alert lifecycle instead.
type MetricProbe struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	DataSourceID uuid.UUID `json:"data_source_id" gorm:"type:uuid"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	Expression  string    `json:"expression" gorm:"size:1024;not null"`
	Threshold   float64   `json:"threshold"`
	Environment string    `json:"environment" gorm:"size:64;not null"`
	Resource    string    `json:"resource" gorm:"size:128;not null"`
	Event       string    `json:"event" gorm:"size:128;not null"`
	Severity    string    `json:"severity" gorm:"size:32;not null"`
	Service     []string  `json:"service" gorm:"-"`
	Enabled     bool      `json:"enabled" gorm:"default:true"`
}

