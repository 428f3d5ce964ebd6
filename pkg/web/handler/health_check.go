package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
)

const checkTimeout = 2 * time.Second

// ComponentCheck 单个依赖组件的探测
type ComponentCheck struct {
	Name   string
	IsCore bool
	Check  func(ctx context.Context) error
}

type HealthCheckHandler struct {
	checks []ComponentCheck
}

func NewHealthCheckHandler(checks ...ComponentCheck) *HealthCheckHandler {
	return &HealthCheckHandler{checks: checks}
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	IsCore  bool          `json:"is_core"`
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

var startupTime = time.Now()

// AdvancedHealthCheck 核心组件异常时返回503
func (h *HealthCheckHandler) AdvancedHealthCheck(c context.Context, ctx *app.RequestContext) {
	status := HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(startupTime).Truncate(time.Second).String(),
		Components: make([]ComponentStatus, 0, len(h.checks)),
	}
	for _, check := range h.checks {
		status.Components = append(status.Components, runCheck(c, check))
	}

	if hasCriticalErrors(status.Components) {
		status.Status = "degraded"
		ctx.JSON(503, status)
		return
	}

	ctx.JSON(200, status)
}

func runCheck(c context.Context, check ComponentCheck) ComponentStatus {
	checkCtx, cancel := context.WithTimeout(c, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check.Check(checkCtx)
	result := ComponentStatus{
		Name:    check.Name,
		Status:  "ok",
		IsCore:  check.IsCore,
		Latency: time.Since(start),
	}
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
	}
	return result
}

func hasCriticalErrors(components []ComponentStatus) bool {
	for _, comp := range components {
		// 核心组件状态异常或任意组件发生严重错误
		if (comp.IsCore && comp.Status != "ok") || comp.Status == "critical" {
			return true
		}
	}
	return false
}
