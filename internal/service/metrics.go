package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 发布结果标签
const (
	publishResultPublished = "published"
	publishResultRejected  = "rejected"
	publishResultFailed    = "failed"
)

var (
	publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "school_manager",
		Name:      "schedule_publish_total",
		Help:      "课表发布次数，按结果区分",
	}, []string{"result"})

	saveConflictTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "school_manager",
		Name:      "schedule_save_conflicts_total",
		Help:      "因冲突被阻止的保存次数",
	})
)
