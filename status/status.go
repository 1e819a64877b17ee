// Package status holds the JSON response shapes served by the API.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type GeneralStats struct {
	Hostname      string `json:"hostname"`
	OSType        string `json:"os_type"`
	OSName        string `json:"os_name"`
	OSVersion     string `json:"os_version"`
	KernelVersion string `json:"kernel_version"`
	Arch          string `json:"arch"`
	LastBoot      string `json:"last_boot"`
	Uptime        Uptime `json:"uptime"`

	BootTime time.Time `json:"-"`
}

type Identity struct {
	Hostname      string
	OSType        string
	OSName        string
	OSVersion     string
	KernelVersion string
	Arch          string
}

// Uptime fields are remainders: Seconds < 60, Minutes < 60, Hours < 24.
type Uptime struct {
	Seconds int64 `json:"seconds"`
	Minutes int64 `json:"minutes"`
	Hours   int64 `json:"hours"`
	Days    int64 `json:"days"`
}

func (u Uptime) TotalSeconds() int64 {
	return u.Days*86400 + u.Hours*3600 + u.Minutes*60 + u.Seconds
}

func (u Uptime) Duration() time.Duration {
	return time.Duration(u.TotalSeconds()) * time.Second
}

type CPUStats struct {
	Usage        float64  `json:"cpu_usage"`
	Temp         *float64 `json:"cpu_temp"`
	Freq         float64  `json:"cpu_freq"`
	Count        int      `json:"cpu_count"`
	UsagePerCore PerCore  `json:"cpu_usage_per_core"`
}

// PerCore is per-core usage indexed from core 0. It serializes as an object
// keyed "C1".."Cn" in core order.
type PerCore []float64

func CoreKey(i int) string {
	return fmt.Sprintf("C%d", i+1)
}

func (p PerCore) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, v := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := writeMember(buf, CoreKey(i), val); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type MemStats struct {
	Total     float64 `json:"total"`
	Used      float64 `json:"used"`
	Available float64 `json:"available"`
	Free      float64 `json:"free"`
	Buffers   float64 `json:"buffers"`
	Cached    float64 `json:"cached"`
	Percent   float64 `json:"percent"`
}

type DiskStats struct {
	Total   float64 `json:"total"`
	Used    float64 `json:"used"`
	Free    float64 `json:"free"`
	Percent float64 `json:"percent"`
}

type ServiceStatus struct {
	Key     string `json:"-"`
	Status  bool   `json:"status"`
	Process string `json:"process"`
	Link    string `json:"link"`
}

// ServiceStats serializes as an object keyed by service, in registry order.
type ServiceStats []ServiceStatus

func (s ServiceStats) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, svc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := json.Marshal(svc)
		if err != nil {
			return nil, err
		}
		if err := writeMember(buf, svc.Key, val); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s ServiceStats) Get(key string) (ServiceStatus, bool) {
	for _, svc := range s {
		if svc.Key == key {
			return svc, true
		}
	}
	return ServiceStatus{}, false
}

func writeMember(buf *bytes.Buffer, key string, val []byte) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
