package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/donfreerk/shock-tester-sub001/internal/bench"
	"github.com/donfreerk/shock-tester-sub001/internal/config"
	"github.com/donfreerk/shock-tester-sub001/internal/logger"
	natspub "github.com/donfreerk/shock-tester-sub001/internal/nats"
	"github.com/donfreerk/shock-tester-sub001/internal/session"
	"github.com/donfreerk/shock-tester-sub001/internal/sim"
	"github.com/donfreerk/shock-tester-sub001/internal/websocket"
	"github.com/donfreerk/shock-tester-sub001/internal/workers"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
	"github.com/donfreerk/shock-tester-sub001/pkg/utils"
)

// SystemMetrics tracks counters shared between the wiring goroutines.
type SystemMetrics struct {
	mutex        sync.RWMutex
	StartTime    time.Time
	TotalSamples int64
	SampleErrors int64
	TotalErrors  int64
}

func (m *SystemMetrics) IncrementSamples() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.TotalSamples++
}

func (m *SystemMetrics) IncrementSampleErrors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SampleErrors++
}

func (m *SystemMetrics) IncrementErrors() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.TotalErrors++
}

func (m *SystemMetrics) Snapshot() (samples, sampleErrors, errors int64, uptime time.Duration) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.TotalSamples, m.SampleErrors, m.TotalErrors, time.Since(m.StartTime)
}

// command is the JSON shape accepted on the NATS command subject.
type command struct {
	Action      string  `json:"action"` // start, stop, clear
	Position    string  `json:"position,omitempty"`
	VehicleType string  `json:"vehicle_type,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to the JSON configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	metrics := &SystemMetrics{StartTime: time.Now()}

	sysLogger := logger.NewSystemLoggerWithConfig(logger.LogConfig{
		BasePath:           cfg.LogPath,
		MaxFileSize:        50 * 1024 * 1024,
		RetentionDays:      7,
		RotationInterval:   24 * time.Hour,
		EnableDebug:        cfg.LogDebug,
		CleanupInterval:    1 * time.Hour,
		ConsoleOutput:      cfg.LogConsole,
		ThrottleInterval:   30 * time.Second,
		ThrottleMaxRepeats: 1000000,
	})
	defer sysLogger.Close()

	defer func() {
		if r := recover(); r != nil {
			sysLogger.LogCriticalError("main", "panic", fmt.Errorf("%v", r))
			fmt.Fprintf(os.Stderr, "crash: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sysLogger.LogSystemStarted()

	// Evaluation worker pool and the test session.
	pool := workers.NewPool(cfg.WorkerCount, cfg.WorkerQueue, sysLogger)
	defer pool.Stop()

	sess := session.New(cfg.SessionConfig(), pool, sysLogger)

	// NATS publisher.
	publisher := natspub.NewPublisher(cfg.SubjectBase)
	if cfg.NATSEnabled {
		if err := publisher.Connect(cfg.NATSURL); err != nil {
			sysLogger.LogCriticalError("nats", "connect", err)
		}
	}
	defer publisher.Disconnect()

	// WebSocket fanout for the GUI.
	wsManager := websocket.NewWebSocketManager()
	go wsManager.Run()

	converter := utils.NewUnitConverter(cfg.LogDebug, nil)

	// Applied evaluations go straight out to all consumers.
	sess.OnStatus = func(status models.EGEAStatus) {
		if err := publisher.PublishResult(status); err != nil {
			metrics.IncrementErrors()
			sysLogger.LogCriticalError("nats", "publish_result", err)
		}
		if force, err := converter.CountsToForce(sess.StaticWeight()); err == nil {
			sysLogger.LogDebug("session", fmt.Sprintf(
				"evaluation=%s phase_valid=%v static_force=%.0fN",
				status.Evaluation, status.MinPhaseShift != nil, force))
		}
	}

	systemStatus := func() models.SystemStatus {
		_, sampleErrors, errorCount, uptime := metrics.Snapshot()
		return models.SystemStatus{
			TestActive:   sess.IsTestActive(),
			DataCount:    int(sess.GetDataCount()),
			EGEA:         sess.GetEGEAStatus(),
			NATSConnect:  publisher.IsConnected(),
			WSClients:    wsManager.GetConnectedCount(),
			UptimeSec:    uptime.Seconds(),
			Timestamp:    time.Now().UnixMilli(),
			ErrorCount:   errorCount,
			SampleErrors: sampleErrors,
		}
	}

	go wsManager.ServeHTTP(cfg.WebSocketAddr, systemStatus)

	// Bench PLC bridge.
	var benchCtrl *bench.Controller
	if cfg.PLCEnabled {
		benchCtrl = bench.NewController(cfg.PLCAddress, cfg.PLCRack, cfg.PLCSlot, sysLogger)
		benchCtrl.OnStartTest = func(side string, weight uint16, duration uint8) {
			sess.StartTest(side, "M1")
			sess.SetStaticWeight(float64(weight))
		}
		benchCtrl.OnStopTest = sess.StopTest
		benchCtrl.OnClear = sess.Clear
		benchCtrl.OnEmergency = func() {
			sysLogger.LogCriticalError("bench", "emergency", fmt.Errorf("emergency stop raised"))
			sess.StopTest()
		}
		if err := benchCtrl.Start(); err != nil {
			sysLogger.LogCriticalError("bench", "start", err)
		}
		defer benchCtrl.Stop()
	}

	// Simulator feed, used when no cabinet hardware is attached.
	var simulator *sim.Simulator
	if cfg.SimEnabled {
		simCfg := sim.DefaultConfig()
		simulator = sim.New(simCfg)
		if err := simulator.SetDampingQuality(cfg.SimQuality); err != nil {
			sysLogger.LogCriticalError("sim", "quality", err)
		}
		simulator.OnData = func(side string, rec models.SampleRecord) {
			if err := sess.AddData(rec); err != nil {
				metrics.IncrementSampleErrors()
				return
			}
			metrics.IncrementSamples()
		}
		simulator.OnComplete = func(side string) {
			sess.StopTest()
		}
		defer simulator.Stop()
	}

	// Remote control over NATS.
	if publisher.IsConnected() {
		err := publisher.SubscribeCommands(func(data []byte) {
			var cmd command
			if err := json.Unmarshal(data, &cmd); err != nil {
				metrics.IncrementErrors()
				sysLogger.LogCriticalError("nats", "command", err)
				return
			}
			handleCommand(cmd, sess, simulator, sysLogger)
		})
		if err != nil {
			sysLogger.LogCriticalError("nats", "subscribe", err)
		}
	}

	// Periodic status and live data publishing.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		statusTicker := time.NewTicker(time.Duration(cfg.StatusPeriod) * time.Second)
		defer statusTicker.Stop()
		liveTicker := time.NewTicker(200 * time.Millisecond)
		defer liveTicker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-statusTicker.C:
				status := systemStatus()
				if benchCtrl != nil {
					status.PLC = benchCtrl.ConnectionStatus()
					benchCtrl.UpdateStatus(benchStatusFrom(status))
				}
				if err := publisher.PublishStatus(status); err != nil {
					metrics.IncrementErrors()
				}
				wsManager.BroadcastStatus(status)

			case <-liveTicker.C:
				if !sess.IsTestActive() {
					continue
				}
				live := sess.LiveData(cfg.ChartPoints)
				if err := publisher.PublishLiveData(live); err != nil {
					metrics.IncrementErrors()
				}
				wsManager.BroadcastLiveData(live)
			}
		}
	}()

	// Wait for shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cancel()
	wg.Wait()
	wsManager.CloseAll()

	_, _, _, uptime := metrics.Snapshot()
	sysLogger.LogSystemShutdown(uptime)
}

func handleCommand(cmd command, sess *session.TestSession, simulator *sim.Simulator, sysLogger *logger.SystemLogger) {
	switch cmd.Action {
	case "start":
		position := cmd.Position
		if position == "" {
			position = "front_left"
		}
		sess.StartTest(position, cmd.VehicleType)
		if simulator != nil {
			side := "left"
			if position == "front_right" {
				side = "right"
			}
			duration := cmd.Duration
			if duration <= 0 {
				duration = 30.0
			}
			if err := simulator.Start(side, duration); err != nil {
				sysLogger.LogCriticalError("sim", "start", err)
			}
		}

	case "stop":
		if simulator != nil {
			simulator.Stop()
		}
		sess.StopTest()

	case "clear":
		sess.Clear()

	default:
		sysLogger.LogCriticalError("nats", "command", fmt.Errorf("unknown action: %s", cmd.Action))
	}
}

func benchStatusFrom(status models.SystemStatus) models.BenchStatus {
	egea := status.EGEA
	out := models.BenchStatus{
		TestActive:    status.TestActive,
		NATSConnected: status.NATSConnect,
		Passing:       egea.Passing,
		SystemHealthy: status.ErrorCount == 0,
		SampleCount:   int32(status.DataCount),
		ErrorCount:    int32(status.ErrorCount),
		UptimeSeconds: int32(status.UptimeSec),
		QualityIndex:  float32(egea.QualityIndex),
	}
	if egea.MinPhaseShift != nil {
		out.MinPhaseShift = float32(*egea.MinPhaseShift)
	}
	if egea.MinPhaseFreq != nil {
		out.MinPhaseFreq = float32(*egea.MinPhaseFreq)
	}
	return out
}
