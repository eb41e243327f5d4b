package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type LogLevel int

const (
	LOG_ERROR LogLevel = iota
	LOG_WARN
	LOG_INFO
	LOG_DEBUG
)

type LogConfig struct {
	BasePath         string        // base directory for log files
	MaxFileSize      int64         // max size per file in bytes
	RetentionDays    int           // days to keep old logs
	RotationInterval time.Duration // rotation interval
	EnableDebug      bool          // write debug logs to file
	CleanupInterval  time.Duration // interval between cleanup runs

	// Console output on stdout. Default: false (silent).
	ConsoleOutput bool

	// Throttling for repeated identical messages.
	ThrottleInterval   time.Duration
	ThrottleMaxRepeats int
}

type SystemLogger struct {
	config LogConfig

	// One logger per category.
	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger

	// Active files.
	errorFile *os.File
	warnFile  *os.File
	infoFile  *os.File
	debugFile *os.File

	mu             sync.RWMutex
	lastRotation   time.Time
	cleanupCancel  context.CancelFunc
	isShuttingDown bool
	shutdownChan   chan struct{}

	// Throttling state for repeated identical errors.
	throttleMu  sync.Mutex
	lastLog     map[string]time.Time
	repeatCount map[string]int
}

// NewSystemLogger creates a logger with the default configuration.
func NewSystemLogger() *SystemLogger {
	config := LogConfig{
		BasePath:           "logs",
		MaxFileSize:        50 * 1024 * 1024,
		RetentionDays:      7,
		RotationInterval:   24 * time.Hour,
		EnableDebug:        false,
		CleanupInterval:    1 * time.Hour,
		ConsoleOutput:      false,
		ThrottleInterval:   30 * time.Second,
		ThrottleMaxRepeats: 1000000,
	}
	return NewSystemLoggerWithConfig(config)
}

// NewSystemLoggerWithConfig creates a logger with a custom configuration.
func NewSystemLoggerWithConfig(config LogConfig) *SystemLogger {
	logger := &SystemLogger{
		config:       config,
		lastRotation: time.Now(),
		shutdownChan: make(chan struct{}),
		lastLog:      make(map[string]time.Time),
		repeatCount:  make(map[string]int),
	}

	if err := logger.createLogDirectories(); err != nil {
		log.Fatalf("failed to create log directories: %v", err)
	}

	if err := logger.initializeLogFiles(); err != nil {
		log.Fatalf("failed to initialize log files: %v", err)
	}

	logger.startCleanupRoutine()

	return logger
}

func (sl *SystemLogger) createLogDirectories() error {
	directories := []string{
		filepath.Join(sl.config.BasePath, "errors"),
		filepath.Join(sl.config.BasePath, "system"),
		filepath.Join(sl.config.BasePath, "warnings"),
		filepath.Join(sl.config.BasePath, "debug"),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

func (sl *SystemLogger) initializeLogFiles() error {
	dateStr := time.Now().Format("2006-01-02")

	var err error

	errorPath := filepath.Join(sl.config.BasePath, "errors", fmt.Sprintf("errors_%s.log", dateStr))
	sl.errorFile, err = os.OpenFile(errorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open error log: %v", err)
	}
	sl.errorLogger = log.New(sl.errorFile, "[ERROR] ", log.LstdFlags|log.Lshortfile)

	warnPath := filepath.Join(sl.config.BasePath, "warnings", fmt.Sprintf("warnings_%s.log", dateStr))
	sl.warnFile, err = os.OpenFile(warnPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open warning log: %v", err)
	}
	sl.warnLogger = log.New(sl.warnFile, "[WARN]  ", log.LstdFlags)

	infoPath := filepath.Join(sl.config.BasePath, "system", fmt.Sprintf("system_%s.log", dateStr))
	sl.infoFile, err = os.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open system log: %v", err)
	}
	sl.infoLogger = log.New(sl.infoFile, "[INFO]  ", log.LstdFlags)

	if sl.config.EnableDebug {
		debugPath := filepath.Join(sl.config.BasePath, "debug", fmt.Sprintf("debug_%s.log", dateStr))
		sl.debugFile, err = os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open debug log: %v", err)
		}
		sl.debugLogger = log.New(sl.debugFile, "[DEBUG] ", log.LstdFlags|log.Lshortfile)
	} else {
		sl.debugLogger = log.New(os.Stdout, "[DEBUG] ", log.LstdFlags)
	}

	return nil
}

func (sl *SystemLogger) startCleanupRoutine() {
	ctx, cancel := context.WithCancel(context.Background())
	sl.cleanupCancel = cancel

	go func() {
		ticker := time.NewTicker(sl.config.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-sl.shutdownChan:
				return
			case <-ticker.C:
				sl.performMaintenance()
			}
		}
	}()
}

func (sl *SystemLogger) performMaintenance() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.isShuttingDown {
		return
	}

	if time.Since(sl.lastRotation) >= sl.config.RotationInterval {
		if err := sl.rotateLogsUnsafe(); err != nil {
			if sl.config.ConsoleOutput {
				fmt.Printf("log rotation failed: %v\n", err)
			}
		}
	}

	sl.checkFileSizes()

	if err := sl.cleanupOldLogs(); err != nil {
		if sl.config.ConsoleOutput {
			fmt.Printf("log cleanup failed: %v\n", err)
		}
	}
}

func (sl *SystemLogger) checkFileSizes() {
	files := []*os.File{sl.errorFile, sl.warnFile, sl.infoFile}
	if sl.debugFile != nil {
		files = append(files, sl.debugFile)
	}

	for _, file := range files {
		if file == nil {
			continue
		}

		if stat, err := file.Stat(); err == nil {
			if stat.Size() >= sl.config.MaxFileSize {
				sl.rotateLogsUnsafe()
				break
			}
		}
	}
}

// rotateLogsUnsafe rotates the logs; must be called with the lock held.
func (sl *SystemLogger) rotateLogsUnsafe() error {
	sl.closeFilesUnsafe()

	if err := sl.initializeLogFiles(); err != nil {
		return err
	}

	sl.lastRotation = time.Now()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("LOG_ROTATION_COMPLETED: timestamp=%s", sl.lastRotation.Format(time.RFC3339))
	}

	return nil
}

func (sl *SystemLogger) cleanupOldLogs() error {
	cutoffDate := time.Now().AddDate(0, 0, -sl.config.RetentionDays)

	categories := []string{"errors", "system", "warnings", "debug"}

	for _, category := range categories {
		categoryPath := filepath.Join(sl.config.BasePath, category)

		files, err := os.ReadDir(categoryPath)
		if err != nil {
			continue
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}

			filePath := filepath.Join(categoryPath, file.Name())

			info, err := file.Info()
			if err != nil {
				continue
			}

			if info.ModTime().Before(cutoffDate) {
				if sl.isFileInUse(filePath) {
					continue
				}

				if err := os.Remove(filePath); err != nil {
					if sl.errorLogger != nil {
						sl.errorLogger.Printf("CLEANUP_ERROR: file=%s error=%v", filePath, err)
					}
				} else if sl.infoLogger != nil {
					sl.infoLogger.Printf("LOG_CLEANUP: removed=%s age=%v category=%s",
						file.Name(), time.Since(info.ModTime()), category)
				}
			}
		}
	}

	return nil
}

func (sl *SystemLogger) isFileInUse(filePath string) bool {
	activeFiles := []string{
		sl.getActiveFilePath(sl.errorFile),
		sl.getActiveFilePath(sl.warnFile),
		sl.getActiveFilePath(sl.infoFile),
	}

	if sl.debugFile != nil {
		activeFiles = append(activeFiles, sl.getActiveFilePath(sl.debugFile))
	}

	for _, activePath := range activeFiles {
		if activePath == filePath {
			return true
		}
	}

	return false
}

func (sl *SystemLogger) getActiveFilePath(file *os.File) string {
	if file == nil {
		return ""
	}
	return file.Name()
}

func (sl *SystemLogger) closeFilesUnsafe() {
	if sl.errorFile != nil {
		sl.errorFile.Close()
		sl.errorFile = nil
	}
	if sl.warnFile != nil {
		sl.warnFile.Close()
		sl.warnFile = nil
	}
	if sl.infoFile != nil {
		sl.infoFile.Close()
		sl.infoFile = nil
	}
	if sl.debugFile != nil {
		sl.debugFile.Close()
		sl.debugFile = nil
	}
}

// ====================== EVENT LOGGING ======================

// LogBenchDisconnected records a lost connection to the test bench PLC.
func (sl *SystemLogger) LogBenchDisconnected(attempts int, lastError error) {
	sl.mu.RLock()
	if sl.errorLogger != nil {
		sl.errorLogger.Printf("BENCH_DISCONNECTED: attempts=%d, error=%v", attempts, lastError)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("BENCH_DISCONNECTED: attempts=%d, error=%v\n", attempts, lastError)
	}
}

func (sl *SystemLogger) LogBenchReconnected(downtime time.Duration) {
	sl.mu.RLock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("BENCH_RECONNECTED: downtime=%v", downtime)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("BENCH_RECONNECTED: downtime=%v\n", downtime)
	}
}

// LogTestStarted records the start of a suspension test.
func (sl *SystemLogger) LogTestStarted(position, vehicleType string) {
	sl.mu.RLock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("TEST_STARTED: position=%s vehicle=%s", position, vehicleType)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("TEST_STARTED: position=%s vehicle=%s\n", position, vehicleType)
	}
}

// LogTestCompleted records the outcome of a finished test.
func (sl *SystemLogger) LogTestCompleted(position string, samples int, evaluation string) {
	sl.mu.RLock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("TEST_COMPLETED: position=%s samples=%d evaluation=%s", position, samples, evaluation)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("TEST_COMPLETED: position=%s samples=%d evaluation=%s\n", position, samples, evaluation)
	}
}

// LogStaleResultDiscarded records an evaluation that arrived after its
// session ended.
func (sl *SystemLogger) LogStaleResultDiscarded(generation, current uint64) {
	sl.mu.RLock()
	if sl.warnLogger != nil {
		sl.warnLogger.Printf("STALE_RESULT_DISCARDED: generation=%d current=%d", generation, current)
	}
	sl.mu.RUnlock()
}

func (sl *SystemLogger) LogSystemStarted() {
	sl.mu.RLock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("SYSTEM_STARTED: user=%s", getCurrentUser())
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Println("system started")
	}
}

func (sl *SystemLogger) LogSystemShutdown(uptime time.Duration) {
	sl.mu.RLock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("SYSTEM_SHUTDOWN: uptime=%v", uptime)
	}
	sl.mu.RUnlock()

	if sl.config.ConsoleOutput {
		fmt.Printf("system shutdown, uptime %v\n", uptime)
	}
}

// LogCriticalError writes an error with per-message throttling so a
// fast-failing component cannot flood the error log.
func (sl *SystemLogger) LogCriticalError(component, operation string, err error) {
	if err == nil {
		return
	}

	key := fmt.Sprintf("%s|%s|%s", component, operation, err.Error())
	now := time.Now()

	sl.throttleMu.Lock()
	last, exists := sl.lastLog[key]
	if exists && now.Sub(last) < sl.config.ThrottleInterval {
		count := sl.repeatCount[key]
		if count >= sl.config.ThrottleMaxRepeats {
			sl.repeatCount[key] = 0
			sl.lastLog[key] = now
			sl.throttleMu.Unlock()
			return
		}
		sl.repeatCount[key] = count + 1
		sl.throttleMu.Unlock()
		return
	}

	repeats := sl.repeatCount[key]
	if repeats > 0 {
		aggregated := fmt.Errorf("%v (repeated %d times since %s)", err, repeats, last.Format(time.RFC3339))
		sl.repeatCount[key] = 0
		sl.lastLog[key] = now
		sl.throttleMu.Unlock()

		sl.mu.RLock()
		if sl.errorLogger != nil {
			sl.errorLogger.Printf("CRITICAL_ERROR: component=%s operation=%s error=%v", component, operation, aggregated)
		}
		sl.mu.RUnlock()
		if sl.config.ConsoleOutput {
			fmt.Printf("CRITICAL_ERROR in %s.%s: %v\n", component, operation, aggregated)
		}
		return
	}

	sl.lastLog[key] = now
	sl.throttleMu.Unlock()

	sl.mu.RLock()
	if sl.errorLogger != nil {
		sl.errorLogger.Printf("CRITICAL_ERROR: component=%s operation=%s error=%v", component, operation, err)
	}
	sl.mu.RUnlock()
	if sl.config.ConsoleOutput {
		fmt.Printf("CRITICAL_ERROR in %s.%s: %v\n", component, operation, err)
	}
}

func (sl *SystemLogger) LogConfigurationChange(component, change string) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.infoLogger != nil {
		sl.infoLogger.Printf("CONFIG_CHANGE: component=%s change=%s", component, change)
	}
	if sl.config.ConsoleOutput {
		fmt.Printf("CONFIG_CHANGE: component=%s change=%s\n", component, change)
	}
}

func (sl *SystemLogger) LogDebug(component, message string) {
	if !sl.config.EnableDebug {
		return
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	if sl.debugLogger != nil {
		sl.debugLogger.Printf("DEBUG: component=%s message=%s", component, message)
	}
	if sl.config.ConsoleOutput {
		fmt.Printf("DEBUG: component=%s message=%s\n", component, message)
	}
}

// GetLogStats reports sizes and file counts of the active log categories.
func (sl *SystemLogger) GetLogStats() map[string]interface{} {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	stats := make(map[string]interface{})

	if sl.errorFile != nil {
		if stat, err := sl.errorFile.Stat(); err == nil {
			stats["error_file_size"] = stat.Size()
		}
	}

	if sl.infoFile != nil {
		if stat, err := sl.infoFile.Stat(); err == nil {
			stats["info_file_size"] = stat.Size()
		}
	}

	categories := []string{"errors", "system", "warnings", "debug"}
	for _, category := range categories {
		categoryPath := filepath.Join(sl.config.BasePath, category)
		if files, err := os.ReadDir(categoryPath); err == nil {
			stats[fmt.Sprintf("%s_file_count", category)] = len(files)
		}
	}

	stats["last_rotation"] = sl.lastRotation

	return stats
}

// ForceRotation rotates the logs immediately.
func (sl *SystemLogger) ForceRotation() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.isShuttingDown {
		return fmt.Errorf("logger is shutting down")
	}

	return sl.rotateLogsUnsafe()
}

// Close shuts the logger down and closes all files.
func (sl *SystemLogger) Close() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.isShuttingDown = true

	if sl.cleanupCancel != nil {
		sl.cleanupCancel()
	}

	select {
	case <-sl.shutdownChan:
	default:
		close(sl.shutdownChan)
	}

	if sl.infoLogger != nil {
		sl.infoLogger.Printf("LOGGER_SHUTDOWN: timestamp=%s", time.Now().Format(time.RFC3339))
	}

	sl.closeFilesUnsafe()
}

func getCurrentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("USERNAME"); user != "" {
		return user
	}
	return "unknown"
}
