package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type MemoryMetricEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	HeapAllocBytes uint64    `json:"heap_alloc_bytes"`
	HeapInuseBytes uint64    `json:"heap_inuse_bytes"`
	HeapSysBytes   uint64    `json:"heap_sys_bytes"`
}

// MemoryMonitor samples the process heap at an interval while a dataset
// is downloaded and a benchmark is built, and dumps the samples to a JSON
// file on Stop.
type MemoryMonitor struct {
	cfg      *Config
	metrics  []MemoryMetricEntry
	mutex    sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	filename string
}

func NewMemoryMonitor(cfg *Config) *MemoryMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	filename := cfg.MemoryMonitoringFile
	if filename == "" {
		filename = fmt.Sprintf("memory_metrics_%d.json", time.Now().Unix())
	}

	return &MemoryMonitor{
		cfg:      cfg,
		metrics:  make([]MemoryMetricEntry, 0),
		ctx:      ctx,
		cancel:   cancel,
		filename: filename,
	}
}

func (m *MemoryMonitor) Start() {
	if !m.cfg.MemoryMonitoringEnabled {
		return
	}

	interval := time.Duration(m.cfg.MemoryMonitoringInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	log.WithFields(log.Fields{
		"interval": interval,
		"file":     m.filename,
	}).Info("Starting memory monitoring")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.sample()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.sample()
			}
		}
	}()
}

func (m *MemoryMonitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.metrics = append(m.metrics, MemoryMetricEntry{
		Timestamp:      time.Now().UTC(),
		HeapAllocBytes: stats.HeapAlloc,
		HeapInuseBytes: stats.HeapInuse,
		HeapSysBytes:   stats.HeapSys,
	})
}

func (m *MemoryMonitor) Stop() {
	if !m.cfg.MemoryMonitoringEnabled {
		return
	}

	m.cancel()
	m.wg.Wait()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	data, err := json.MarshalIndent(m.metrics, "", "  ")
	if err != nil {
		log.WithError(err).Error("Failed to marshal memory metrics")
		return
	}

	if err := os.WriteFile(m.filename, data, 0o644); err != nil {
		log.WithError(err).Error("Failed to write memory metrics file")
		return
	}

	log.WithFields(log.Fields{
		"file":    m.filename,
		"samples": len(m.metrics),
	}).Info("Wrote memory metrics")
}
