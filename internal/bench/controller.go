package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/donfreerk/shock-tester-sub001/internal/logger"
	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// Controller polls the bench PLC for commands, raises edge-triggered
// callbacks and mirrors the tester status back. It reconnects on its
// own when the PLC drops.
type Controller struct {
	plc    *SiemensPLC
	reader *Reader
	writer *Writer
	logger *logger.SystemLogger

	pollInterval   time.Duration
	statusInterval time.Duration

	mu           sync.Mutex
	lastCommands models.BenchCommands
	status       models.BenchStatus
	liveBit      bool
	errorCount   int32
	disconnected time.Time
	attempts     int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Edge-triggered command callbacks. Set before Start.
	OnStartTest func(side string, weight uint16, duration uint8)
	OnStopTest  func()
	OnClear     func()
	OnEmergency func()
}

// NewController creates a controller for the PLC at the given address.
func NewController(ip string, rack, slot int, log *logger.SystemLogger) *Controller {
	plc := NewSiemensPLC(ip, rack, slot)
	return &Controller{
		plc:            plc,
		logger:         log,
		pollInterval:   100 * time.Millisecond,
		statusInterval: 1 * time.Second,
	}
}

// Start connects and begins the poll loop. The loop keeps retrying the
// connection until Stop is called.
func (c *Controller) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if err := c.plc.Connect(); err != nil {
		// The loop below retries; surface the first failure to the caller.
		if c.logger != nil {
			c.logger.LogCriticalError("bench", "connect", err)
		}
	}

	c.reader = NewReader(c.plc.Client)
	c.writer = NewWriter(c.plc.Client)

	c.wg.Add(1)
	go c.run(ctx)

	return nil
}

// Stop ends the poll loop and disconnects.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.plc.Disconnect()
}

// IsConnected reports the PLC connection state.
func (c *Controller) IsConnected() bool {
	return c.plc.IsConnected()
}

// ConnectionStatus returns the connection state for status reporting.
func (c *Controller) ConnectionStatus() *models.PLCStatus {
	return c.plc.GetConnectionStatus()
}

// UpdateStatus sets the values mirrored to the PLC on the next status
// write.
func (c *Controller) UpdateStatus(status models.BenchStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	liveBit := c.status.LiveBit
	c.status = status
	c.status.LiveBit = liveBit
}

func (c *Controller) run(ctx context.Context) {
	defer c.wg.Done()

	poll := time.NewTicker(c.pollInterval)
	defer poll.Stop()
	statusTick := time.NewTicker(c.statusInterval)
	defer statusTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-poll.C:
			if !c.ensureConnected() {
				continue
			}
			if err := c.pollCommands(); err != nil {
				c.noteError("poll", err)
			}

		case <-statusTick.C:
			if !c.plc.IsConnected() {
				continue
			}
			if err := c.writeStatus(); err != nil {
				c.noteError("status", err)
			}
		}
	}
}

// ensureConnected reconnects with growing backoff after a drop.
func (c *Controller) ensureConnected() bool {
	if c.plc.IsConnected() {
		if c.attempts > 0 {
			downtime := time.Since(c.disconnected)
			if c.logger != nil {
				c.logger.LogBenchReconnected(downtime)
			}
			c.attempts = 0
		}
		return true
	}

	if c.attempts == 0 {
		c.disconnected = time.Now()
	}

	backoff := time.Duration(c.attempts) * time.Second
	if backoff > 10*time.Second {
		backoff = 10 * time.Second
	}
	if time.Since(c.disconnected) < backoff {
		return false
	}

	c.attempts++
	if err := c.plc.Connect(); err != nil {
		if c.logger != nil {
			c.logger.LogBenchDisconnected(c.attempts, err)
		}
		return false
	}

	c.reader = NewReader(c.plc.Client)
	c.writer = NewWriter(c.plc.Client)
	return true
}

// pollCommands reads the command block and fires callbacks on rising
// edges.
func (c *Controller) pollCommands() error {
	commands, err := c.reader.ReadCommands()
	if err != nil {
		c.plc.Disconnect()
		return err
	}

	c.mu.Lock()
	prev := c.lastCommands
	c.lastCommands = *commands
	c.mu.Unlock()

	if commands.Emergency && !prev.Emergency {
		if c.OnEmergency != nil {
			c.OnEmergency()
		}
		return nil
	}

	if commands.StartLeft && !prev.StartLeft && c.OnStartTest != nil {
		c.OnStartTest("front_left", commands.StaticWeight, commands.MotorDuration)
	}
	if commands.StartRight && !prev.StartRight && c.OnStartTest != nil {
		c.OnStartTest("front_right", commands.StaticWeight, commands.MotorDuration)
	}
	if commands.StopTest && !prev.StopTest && c.OnStopTest != nil {
		c.OnStopTest()
	}
	if commands.ClearBuffer && !prev.ClearBuffer && c.OnClear != nil {
		c.OnClear()
	}
	if commands.ResetErrors && !prev.ResetErrors {
		c.mu.Lock()
		c.errorCount = 0
		c.mu.Unlock()
	}

	return nil
}

func (c *Controller) writeStatus() error {
	c.mu.Lock()
	c.liveBit = !c.liveBit
	c.status.LiveBit = c.liveBit
	c.status.PLCConnected = true
	c.status.ErrorCount = c.errorCount
	high, low := models.ConvertTimestampToPLC(time.Now().UnixMilli())
	c.status.TimestampHigh = high
	c.status.TimestampLow = low
	status := c.status
	c.mu.Unlock()

	if c.writer == nil {
		return fmt.Errorf("writer not initialized")
	}
	return c.writer.WriteStatus(status)
}

func (c *Controller) noteError(operation string, err error) {
	c.mu.Lock()
	c.errorCount++
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.LogCriticalError("bench", operation, err)
	}
}
