package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// StartTime anchors the uptime reported by the health endpoint.
var StartTime = time.Now()

// rootHandler confirms the API is running.
func (s *Server) rootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Recovery Coach API is running!",
		"version": "0.1.0",
		"status":  "healthy",
	})
}

// healthHandler collects integration status plus system-level metrics.
func (s *Server) healthHandler(c echo.Context) error {
	ouraStatus := "not_configured"
	if s.cfg.OuraAccessToken != "" {
		ouraStatus = "configured"
	}
	aiStatus := "not_configured"
	if s.cfg.AnthropicAPIKey != "" {
		aiStatus = "configured"
	}

	v, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(0, false)
	hInfo, _ := host.Info()

	cpuUsage := "unknown"
	if len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", cpuPercent[0])
	}

	payload := map[string]interface{}{
		"api":              "healthy",
		"oura_integration": ouraStatus,
		"ai_integration":   aiStatus,
		"runtime": map[string]interface{}{
			"uptime":     time.Since(StartTime).String(),
			"start_time": StartTime.Format(time.RFC3339),
		},
		"cpu": map[string]interface{}{
			"usage_percent": cpuUsage,
		},
	}
	if hInfo != nil {
		payload["runtime"].(map[string]interface{})["os"] = hInfo.OS
		payload["runtime"].(map[string]interface{})["platform"] = hInfo.Platform
		payload["runtime"].(map[string]interface{})["hostname"] = hInfo.Hostname
		payload["cpu"].(map[string]interface{})["cores"] = hInfo.Procs
	}
	if v != nil {
		payload["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/1024/1024/1024),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	}

	return c.JSON(http.StatusOK, payload)
}
