package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumebuilder",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI 接口调用次数，按操作与结果区分。",
		},
		[]string{"operation", "outcome"},
	)

	imageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumebuilder",
			Subsystem: "image",
			Name:      "uploads_total",
			Help:      "头像上传次数，按结果区分。",
		},
		[]string{"outcome"},
	)

	loginLockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "resumebuilder",
			Subsystem: "auth",
			Name:      "login_lockouts_total",
			Help:      "因连续失败触发的登录锁定次数。",
		},
	)
)

// ObserveAI 记录一次 AI 调用。
func ObserveAI(operation string, err error) {
	aiRequestsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveImageUpload 记录一次头像上传。
func ObserveImageUpload(err error) {
	imageUploadsTotal.WithLabelValues(outcome(err)).Inc()
}

// IncLoginLockout 记录一次登录锁定。
func IncLoginLockout() {
	loginLockoutsTotal.Inc()
}

// Handler 暴露默认注册表，挂载在 /metrics。
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
