package i3block

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"lyricsync/pkg/logging"
)

const (
	// DefaultProcess 默认通知的状态栏进程
	DefaultProcess = "i3blocks"
	// DefaultSignal SIGRTMIN+21，对应i3blocks配置中的 signal=21
	DefaultSignal = 55
)

var logger = logging.Component("i3block")

// Controller 定期查找状态栏进程，状态文件更新后发信号让它刷新
type Controller struct {
	process  string
	signal   syscall.Signal
	interval time.Duration

	pid       int
	pidMutex  sync.RWMutex
	ticker    *time.Ticker
	stopChan  chan struct{}
	isRunning bool
	runMutex  sync.Mutex
}

// NewController process为空时使用i3blocks，signal<=0时使用55
func NewController(process string, signal int, interval time.Duration) *Controller {
	if process == "" {
		process = DefaultProcess
	}
	if signal <= 0 {
		signal = DefaultSignal
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Controller{
		process:  process,
		signal:   syscall.Signal(signal),
		interval: interval,
		pid:      -1,
		stopChan: make(chan struct{}),
	}
}

// Start 开始定期刷新PID
func (c *Controller) Start() error {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()

	if c.isRunning {
		return fmt.Errorf("controller is already running")
	}

	if err := c.refreshPID(); err != nil {
		logger.Debug().Err(err).Msg("Status bar process not found yet")
	}

	c.ticker = time.NewTicker(c.interval)
	c.isRunning = true

	go c.monitorLoop()

	logger.Info().Str("process", c.process).Int("signal", int(c.signal)).Msg("Status bar controller started")
	return nil
}

// Stop 停止刷新
func (c *Controller) Stop() {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()

	if !c.isRunning {
		return
	}

	close(c.stopChan)
	c.ticker.Stop()
	c.isRunning = false

	logger.Info().Msg("Status bar controller stopped")
}

func (c *Controller) monitorLoop() {
	for {
		select {
		case <-c.ticker.C:
			if err := c.refreshPID(); err != nil {
				logger.Debug().Err(err).Msg("Failed to refresh status bar PID")
			}
		case <-c.stopChan:
			return
		}
	}
}

func (c *Controller) refreshPID() error {
	output, err := exec.Command("pgrep", "-x", c.process).Output()
	if err != nil {
		// pgrep 不可用或没找到时再用ps找一次
		output, err = exec.Command("ps", "-eo", "pid,comm").Output()
		if err != nil {
			c.setPID(-1)
			return fmt.Errorf("failed to run ps command: %w", err)
		}
		return c.updateFromPS(string(output))
	}

	pid, ok := firstPID(string(output))
	if !ok {
		c.setPID(-1)
		return fmt.Errorf("%s process not found", c.process)
	}
	c.setPID(pid)
	return nil
}

func (c *Controller) updateFromPS(output string) error {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != c.process {
			continue
		}
		if pid, err := strconv.Atoi(fields[0]); err == nil {
			c.setPID(pid)
			return nil
		}
	}
	c.setPID(-1)
	return fmt.Errorf("%s process not found with ps", c.process)
}

func (c *Controller) setPID(pid int) {
	c.pidMutex.Lock()
	oldPID := c.pid
	c.pid = pid
	c.pidMutex.Unlock()

	if oldPID != pid {
		logger.Debug().Int("old_pid", oldPID).Int("pid", pid).Msg("Status bar PID updated")
	}
}

// GetPID 当前记录的PID，未找到时为-1
func (c *Controller) GetPID() int {
	c.pidMutex.RLock()
	defer c.pidMutex.RUnlock()
	return c.pid
}

// Notify 向状态栏进程发送刷新信号
func (c *Controller) Notify() error {
	pid := c.GetPID()
	if pid <= 0 {
		return fmt.Errorf("invalid PID: %d, %s process not found", pid, c.process)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(c.signal); err != nil {
		return fmt.Errorf("failed to send signal %d to process %d: %w", c.signal, pid, err)
	}
	return nil
}

// IsRunning 是否正在刷新
func (c *Controller) IsRunning() bool {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()
	return c.isRunning
}

func firstPID(output string) (int, bool) {
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && pid > 0 {
			return pid, true
		}
	}
	return 0, false
}
