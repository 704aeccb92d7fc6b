package hubapi

import (
	"context"
)

// CPU is the hub host's processor load.
type CPU struct {
	CurrentLoad float64   `json:"currentLoad"`
	LoadHistory []float64 `json:"loadHistory,omitempty"`
	// Temperature in Celsius; nil when the host does not report one.
	Temperature *float64 `json:"temperature,omitempty"`
}

// RAM is the hub host's memory usage, in bytes.
type RAM struct {
	Total        float64   `json:"total"`
	Available    float64   `json:"available"`
	UsageHistory []float64 `json:"usageHistory,omitempty"`
}

// Uptime is how long the host and the UI service have been running, in seconds.
type Uptime struct {
	SystemSeconds  float64 `json:"systemSeconds"`
	ProcessSeconds float64 `json:"processSeconds"`
}

// Telemetry holds the optional system panels.
type Telemetry struct {
	CPU    *CPU    `json:"cpu,omitempty"`
	RAM    *RAM    `json:"ram,omitempty"`
	Uptime *Uptime `json:"uptime,omitempty"`
}

type cpuResponse struct {
	CurrentLoad    float64   `json:"currentLoad"`
	CPULoadHistory []float64 `json:"cpuLoadHistory"`
	CPUTemperature struct {
		Main *float64 `json:"main"`
	} `json:"cpuTemperature"`
}

type ramResponse struct {
	Mem struct {
		Total     float64 `json:"total"`
		Available float64 `json:"available"`
	} `json:"mem"`
	MemoryUsageHistory []float64 `json:"memoryUsageHistory"`
}

type uptimeResponse struct {
	Time struct {
		Uptime float64 `json:"uptime"`
	} `json:"time"`
	ProcessUptime float64 `json:"processUptime"`
}

// Telemetry reads CPU, RAM, and uptime. Each panel is nil when its request fails.
func (c *Client) Telemetry(ctx context.Context) Telemetry {
	var t Telemetry

	var cpu cpuResponse
	if err := c.getJSON(ctx, cpuPath, &cpu); err != nil {
		c.readFailed(cpuPath, err)
	} else {
		t.CPU = &CPU{
			CurrentLoad: cpu.CurrentLoad,
			LoadHistory: cpu.CPULoadHistory,
			Temperature: cpu.CPUTemperature.Main,
		}
	}

	var ram ramResponse
	if err := c.getJSON(ctx, ramPath, &ram); err != nil {
		c.readFailed(ramPath, err)
	} else {
		t.RAM = &RAM{
			Total:        ram.Mem.Total,
			Available:    ram.Mem.Available,
			UsageHistory: ram.MemoryUsageHistory,
		}
	}

	var uptime uptimeResponse
	if err := c.getJSON(ctx, uptimePath, &uptime); err != nil {
		c.readFailed(uptimePath, err)
	} else {
		t.Uptime = &Uptime{
			SystemSeconds:  uptime.Time.Uptime,
			ProcessSeconds: uptime.ProcessUptime,
		}
	}

	return t
}
