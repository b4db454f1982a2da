// Package stopreason defines why one emulator run ended, and the fixed
// mapping from stop reason to scheduling category.
package stopreason

import "fmt"

// Kind discriminates the StopReason variants.
type Kind uint8

const (
	EndOfInput Kind = iota
	LimitReached
	InfiniteSleep
	ExitHook
	Crash
	NonExecutable
	RomWrite
	Script
	Reset
	Shutdown
	Panic
	Abort
	UserExitRequest
)

// Limit discriminates which resource cap triggered LimitReached.
type Limit uint8

const (
	LimitBasicBlocks Limit = iota
	LimitInterrupts
	LimitMmioRead
	LimitInputReadOverdue
)

// StopReason records why an execution ended, with the payload relevant to
// the triggering condition.
type StopReason struct {
	Kind Kind

	// LimitReached
	Limit Limit

	// Crash
	PC        uint32
	RA        uint32
	Exception uint32

	// NonExecutable
	// (reuses PC)

	// RomWrite
	Addr uint32
}

func (s StopReason) String() string {
	switch s.Kind {
	case EndOfInput:
		return "EndOfInput"
	case LimitReached:
		return fmt.Sprintf("LimitReached(%v)", s.Limit)
	case InfiniteSleep:
		return "InfiniteSleep"
	case ExitHook:
		return "ExitHook"
	case Crash:
		return fmt.Sprintf("Crash{pc=%#x,ra=%#x,exception=%#x}", s.PC, s.RA, s.Exception)
	case NonExecutable:
		return fmt.Sprintf("NonExecutable{pc=%#x}", s.PC)
	case RomWrite:
		return fmt.Sprintf("RomWrite{pc=%#x,addr=%#x}", s.PC, s.Addr)
	case Script:
		return "Script"
	case Reset:
		return "Reset"
	case Shutdown:
		return "Shutdown"
	case Panic:
		return "Panic"
	case Abort:
		return "Abort"
	case UserExitRequest:
		return "UserExitRequest"
	}
	return "Unknown"
}

// Category buckets stop reasons for scheduling and archive placement.
type Category uint8

const (
	CategoryInput Category = iota
	CategoryCrash
	CategoryExit
	CategoryTimeout
	CategoryInvalid
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategoryCrash:
		return "crash"
	case CategoryExit:
		return "exit"
	case CategoryTimeout:
		return "timeout"
	case CategoryInvalid:
		return "invalid"
	}
	return "unknown"
}

// CategoryOf implements the §4.3 stop-reason-to-category table.
func CategoryOf(s StopReason) Category {
	switch s.Kind {
	case EndOfInput:
		return CategoryInput
	case Crash, NonExecutable, RomWrite:
		return CategoryCrash
	case LimitReached, InfiniteSleep:
		return CategoryTimeout
	case ExitHook, Script, Reset, Shutdown, Panic, Abort:
		return CategoryExit
	case UserExitRequest:
		return CategoryInvalid
	}
	return CategoryInvalid
}

// Schedulable configuration: which categories are eligible for corpus
// scheduling. Input and Timeout are scheduled by default; Crash/Exit/Invalid
// are not.
var (
	ScheduleInput   = true
	ScheduleCrash   = false
	ScheduleExit    = false
	ScheduleTimeout = true
)

// Schedule reports whether inputs in category c are scheduled.
func (c Category) Schedule() bool {
	switch c {
	case CategoryInput:
		return ScheduleInput
	case CategoryCrash:
		return ScheduleCrash
	case CategoryExit:
		return ScheduleExit
	case CategoryTimeout:
		return ScheduleTimeout
	default:
		return false
	}
}
