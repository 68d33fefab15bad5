package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var startedAt = time.Now()

// GetSystemPerformance handles GET /api/v1/analytics/performance
func GetSystemPerformance(c *gin.Context) {
	var cpuPercent float64
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var memPercent float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}

	var hostUptime uint64
	if up, err := host.Uptime(); err == nil {
		hostUptime = up
	}

	c.JSON(http.StatusOK, gin.H{
		"cpu_utilization":   cpuPercent,
		"memory_usage":      memPercent,
		"host_uptime":       hostUptime,
		"service_uptime":    time.Since(startedAt).Seconds(),
		"active_sessions":   feedHubStatsOrZero().Subscriptions,
		"connected_clients": feedHubStatsOrZero().Clients,
	})
}
