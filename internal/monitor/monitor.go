package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iotlog/fleetengine/internal/cache"
	"github.com/iotlog/fleetengine/internal/influx"
	"github.com/iotlog/fleetengine/internal/logging"
	"github.com/iotlog/fleetengine/internal/measure"
	"github.com/iotlog/fleetengine/internal/playback"
)

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *playback.Session
	Tracker    *measure.Tracker
	Markers    *cache.VesselCache
	Route      *playback.RouteController
	Region     *playback.RegionRenderer
	Influx     *influx.Manager
	StatusDir  string
}

// Status is the engine status snapshot written every tick.
type Status struct {
	Time         time.Time `json:"time"`
	Active       bool      `json:"active"`
	SessionType  string    `json:"sessionType"`
	CurrentTime  int64     `json:"currentTime"`
	Playing      bool      `json:"playing"`
	Speed        float64   `json:"speed"`
	MarkerCount  int       `json:"markerCount"`
	LineCount    int       `json:"lineCount"`
	PointCount   int       `json:"pointCount"`
	Unit         string    `json:"unit"`
	FramesTotal  uint64    `json:"framesTotal"`
	RenderPasses int       `json:"renderPasses"`
}

// Service samples engine state once a second, mirrors it to a status
// file and forwards it to InfluxDB when a manager is configured.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetEngineStatus returns the current engine status.
func (s *Service) GetEngineStatus() Status {
	snap := s.deps.Session.Snapshot()

	st := Status{
		Time:        time.Now(),
		Active:      snap.Active,
		SessionType: string(snap.Type),
		CurrentTime: snap.CurrentTime,
		Playing:     snap.Playing,
		Speed:       snap.Speed,
	}
	if s.deps.Markers != nil {
		st.MarkerCount = s.deps.Markers.Len()
	}
	if s.deps.Tracker != nil {
		st.LineCount = s.deps.Tracker.Len()
		st.PointCount = s.deps.Tracker.Points()
		st.Unit = string(s.deps.Tracker.Unit())
	}
	if s.deps.Route != nil {
		if eng := s.deps.Route.Engine(); eng != nil {
			st.FramesTotal = eng.Frames()
		}
	}
	if s.deps.Region != nil {
		st.RenderPasses = s.deps.Region.Passes()
	}
	return st
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer statusFile.Close()

		var lastFrames uint64
		lastSample := time.Now()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(1000 * time.Millisecond)

				st := s.GetEngineStatus()
				if !st.Active {
					continue
				}

				if statusFile != nil {
					data, err := json.MarshalIndent(st, "", "  ")
					if err != nil {
						data = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
					}
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(append(data, '\n'))
				}

				if s.deps.Influx != nil {
					point := influx.PlaybackPoint(st.SessionType, st.CurrentTime, st.Playing, st.Speed, st.MarkerCount)
					if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketPlayback, point); err != nil {
						logger.Error("Error writing playback point to InfluxDB", "error", err)
					}

					now := time.Now()
					if st.FramesTotal > lastFrames {
						avg := now.Sub(lastSample) / time.Duration(st.FramesTotal-lastFrames)
						frame := influx.FramePoint(avg, st.FramesTotal)
						if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketEngine, frame); err != nil {
							logger.Error("Error writing frame point to InfluxDB", "error", err)
						}
					}
					lastFrames = st.FramesTotal
					lastSample = now

					activity := influx.MeasurementPoint(st.LineCount, st.PointCount, st.Unit)
					if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketMeasurement, activity); err != nil {
						logger.Error("Error writing measurement point to InfluxDB", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
