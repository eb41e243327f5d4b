// Package bench talks to the Siemens PLC that drives the excitation
// cabinet: it polls the command block, mirrors the tester status back
// and keeps the connection alive.
package bench

import (
	"fmt"
	"sync"
	"time"

	"github.com/robinson/gos7"

	"github.com/donfreerk/shock-tester-sub001/pkg/models"
)

// SiemensPLC wraps the S7 TCP connection to the bench cabinet.
type SiemensPLC struct {
	IP        string
	Rack      int
	Slot      int
	Connected bool
	Client    gos7.Client
	Handler   *gos7.TCPClientHandler
	mutex     sync.Mutex
}

func NewSiemensPLC(ip string, rack, slot int) *SiemensPLC {
	return &SiemensPLC{
		IP:   ip,
		Rack: rack,
		Slot: slot,
	}
}

func (p *SiemensPLC) Connect() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.forceCleanupResources()
	time.Sleep(200 * time.Millisecond)

	p.Handler = gos7.NewTCPClientHandler(p.IP, p.Rack, p.Slot)
	p.Handler.Timeout = 30 * time.Second
	p.Handler.IdleTimeout = 0

	if err := p.Handler.Connect(); err != nil {
		p.forceCleanupResources()
		return fmt.Errorf("failed to connect to PLC: %v", err)
	}

	p.Client = gos7.NewClient(p.Handler)
	p.Connected = true

	return nil
}

func (p *SiemensPLC) Disconnect() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.forceCleanupResources()
}

func (p *SiemensPLC) forceCleanupResources() {
	if p.Handler != nil {
		p.Handler.Close()
		p.Handler = nil
	}
	p.Client = nil
	p.Connected = false
}

func (p *SiemensPLC) GetConnectionStatus() *models.PLCStatus {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	status := &models.PLCStatus{
		Connected: p.Connected,
	}

	if !p.Connected {
		status.Error = "PLC not connected"
	}

	return status
}

func (p *SiemensPLC) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.Connected && p.Handler != nil && p.Client != nil
}

func (p *SiemensPLC) ForceReconnect() error {
	p.Disconnect()
	time.Sleep(1 * time.Second)
	return p.Connect()
}
