package bootloader

import "time"

// Stage identifies a step of a connection or flash operation.
type Stage string

const (
	StageLink      Stage = "link"
	StageChipID    Stage = "chip-id"
	StageFlashID   Stage = "flash-id"
	StageUnprotect Stage = "unprotect"
	StageSpeed     Stage = "speed"
	StageErase     Stage = "erase"
	StageWrite     Stage = "write"
	StageRead      Stage = "read"
	StageVerify    Stage = "verify"
	StageReboot    Stage = "reboot"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "error"
)

// Progress contains information about a running operation.
// Passed to ProgressCallback in execution order.
type Progress struct {
	// Stage is the step being executed
	Stage Stage

	// Message is a human readable label, such as the sector address
	Message string

	// Current is the number of units (sectors, attempts) done so far
	Current int

	// Total is the number of units in the step, zero when unknown
	Total int

	// Address is the flash address the event refers to
	Address uint32

	// Percentage is the completion percentage of the step (0.0 to 100.0)
	Percentage float64

	// BytesDone is the number of bytes erased, written, read or verified
	BytesDone int

	// ElapsedTime is the time since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called synchronously during operations to report progress.
// Implementations should return quickly to avoid blocking the operation.
//
// Example:
//
//	prog := bootloader.New(port,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %.1f%% %s\n", p.Stage, p.Percentage, p.Message)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the programmer.
// This allows integration with any logging framework.
//
// Example with a zap SugaredLogger:
//
//	type zapLogger struct{ s *zap.SugaredLogger }
//	func (l zapLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
//	func (l zapLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
//	func (l zapLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
//	func (l zapLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a recoverable problem with optional key-value pairs
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

func percent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total) * 100
}
