package fs

import (
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection. A rate of 1.0 turns the
// corresponding operation into a deterministic failpoint.
type ChaosConfig struct {
	// ReadFailRate controls how often FS.ReadFile and File.Read fail entirely
	// with EIO.
	ReadFailRate float64

	// WriteFailRate controls how often File.Write fails without writing
	// anything (EIO, ENOSPC, EDQUOT or EROFS).
	WriteFailRate float64

	// PartialWriteRate controls how often File.Write writes a prefix of the
	// buffer and then fails, simulating a crash mid-write.
	PartialWriteRate float64

	// SyncFailRate controls how often File.Sync fails. Applies to temp files
	// and to directory handles opened for fsync.
	SyncFailRate float64

	// CloseFailRate controls how often File.Close reports an error. The
	// underlying descriptor is always closed.
	CloseFailRate float64

	// OpenFailRate controls how often FS.Open and FS.OpenFile fail.
	OpenFailRate float64

	// RenameFailRate controls how often FS.Rename fails with an *os.LinkError.
	RenameFailRate float64

	// MkdirAllFailRate controls how often FS.MkdirAll fails.
	MkdirAllFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection.
	// This is the default mode for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// chaosError marks an error as intentionally injected by [Chaos].
//
// The wrapped error is an [*fs.PathError] (or [*os.LinkError] for rename)
// carrying a real errno, so errors.Is and os.IsPermission keep working.
type chaosError struct {
	Err error
}

func (e *chaosError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *chaosError) Unwrap() error {
	return e.Err
}

// IsChaosErr reports whether err (or any wrapped error) was injected by [Chaos].
// Returns false if err is nil.
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects failures for testing.
//
// Chaos never injects ENOENT, so any os.IsNotExist result originates from the
// wrapped [FS]. Each call decides independently whether to inject; there is
// no sticky per-path state.
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32
	faults atomic.Int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChaos wraps underlying with fault injection driven by seed.
// A nil config disables injection.
func NewChaos(underlying FS, seed int64, config *ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	c := &Chaos{
		fs:  underlying,
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}

	if config != nil {
		c.config = *config
	}

	return c
}

// SetMode switches between active injection and passthrough.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// TotalFaults returns the number of faults injected so far.
func (c *Chaos) TotalFaults() int64 { return c.faults.Load() }

func (c *Chaos) Open(path string) (File, error) {
	if c.should(c.config.OpenFailRate) {
		return nil, c.pathError("open", path, c.pick(unix.EACCES, unix.EIO, unix.EMFILE))
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, path: path, chaos: c}, nil
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.should(c.config.OpenFailRate) {
		return nil, c.pathError("open", path, c.pick(unix.EACCES, unix.EIO, unix.ENOSPC, unix.EROFS))
	}

	f, err := c.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, path: path, chaos: c}, nil
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.should(c.config.ReadFailRate) {
		return nil, c.pathError("read", path, unix.EIO)
	}

	return c.fs.ReadFile(path)
}

func (c *Chaos) MkdirAll(path string, perm os.FileMode) error {
	if c.should(c.config.MkdirAllFailRate) {
		return c.pathError("mkdir", path, c.pick(unix.EACCES, unix.EIO, unix.ENOSPC, unix.EROFS))
	}

	return c.fs.MkdirAll(path, perm)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	return c.fs.Stat(path)
}

func (c *Chaos) Remove(path string) error {
	return c.fs.Remove(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	if c.should(c.config.RenameFailRate) {
		errno := c.pick(unix.EACCES, unix.EIO, unix.ENOSPC, unix.EXDEV, unix.EROFS)
		c.faults.Add(1)

		return &chaosError{Err: &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: errno}}
	}

	return c.fs.Rename(oldpath, newpath)
}

func (c *Chaos) should(rate float64) bool {
	if rate <= 0 || ChaosMode(c.mode.Load()) == ChaosModeNoOp {
		return false
	}

	if rate >= 1 {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.Float64() < rate
}

func (c *Chaos) pick(errs ...syscall.Errno) syscall.Errno {
	if len(errs) == 1 {
		return errs[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return errs[c.rng.IntN(len(errs))]
}

func (c *Chaos) intN(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rng.IntN(n)
}

func (c *Chaos) pathError(op, path string, errno syscall.Errno) error {
	c.faults.Add(1)

	return &chaosError{Err: &fs.PathError{Op: op, Path: path, Err: errno}}
}

// chaosFile wraps a [File] and injects faults into its I/O methods.
type chaosFile struct {
	File
	path  string
	chaos *Chaos
}

func (cf *chaosFile) Read(buf []byte) (int, error) {
	if cf.chaos.should(cf.chaos.config.ReadFailRate) {
		return 0, cf.chaos.pathError("read", cf.path, unix.EIO)
	}

	return cf.File.Read(buf)
}

func (cf *chaosFile) Write(data []byte) (int, error) {
	c := cf.chaos

	if c.should(c.config.WriteFailRate) {
		return 0, c.pathError("write", cf.path, c.pick(unix.EIO, unix.ENOSPC, unix.EDQUOT, unix.EROFS))
	}

	if len(data) > 1 && c.should(c.config.PartialWriteRate) {
		n, err := cf.File.Write(data[:1+c.intN(len(data)-1)])
		if err != nil {
			return n, err
		}

		return n, c.pathError("write", cf.path, c.pick(unix.EIO, unix.ENOSPC))
	}

	return cf.File.Write(data)
}

func (cf *chaosFile) Sync() error {
	if cf.chaos.should(cf.chaos.config.SyncFailRate) {
		return cf.chaos.pathError("sync", cf.path, cf.chaos.pick(unix.EIO, unix.ENOSPC, unix.EROFS))
	}

	return cf.File.Sync()
}

func (cf *chaosFile) Close() error {
	err := cf.File.Close()
	if err != nil {
		return err
	}

	if cf.chaos.should(cf.chaos.config.CloseFailRate) {
		return cf.chaos.pathError("close", cf.path, unix.EIO)
	}

	return nil
}

// Compile-time interface checks.
var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)
