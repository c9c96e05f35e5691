/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Feb  9 10:02:11 2019 mstenber
 * Last modified: Sun Feb 17 12:40:05 2019 mstenber
 * Edit time:     61 min
 *
 */

// mlog is maybe-log. It wraps the standard 'log' and only ever prints
// when asked to:
//
// - MLOG environment variable (or -mlog flag) is a regular expression
// matched against the file name given to Printf2 (or the caller file
// in Printf); by default everything is off and costs next to nothing
//
// - call stack depth is turned into '.' indentation so that nested
// tree operations read like a trace
package mlog

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var logMode = log.Ltime | log.Lmicroseconds
var logger = log.New(os.Stderr, "", logMode)

const (
	stateUninitialized int32 = iota
	stateInitializing
	stateDisabled
	stateEnabled
)

// Accessed atomically; everything below mutex only with it held.
var status int32 = stateUninitialized

var mutex sync.Mutex

var flagPattern *string
var pattern string
var patternRegexp *regexp.Regexp
var file2Debug map[string]bool
var minDepth int
var callers []uintptr

const maxDepth = 100

// Goroutine ids are prefixed to output lines when this is set.
var dumpGids = false

func init() {
	flagPattern = flag.String("mlog", "", "Enable logging based on the given file regular expression")
	Reset()
}

// Reset returns the module to its initial state; the next Printf
// re-reads the environment/flag configuration.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	atomic.StoreInt32(&status, stateUninitialized)
	minDepth = maxDepth
	callers = make([]uintptr, maxDepth)
}

// IsEnabled can be used to check if mlog is in use at all before
// doing something expensive.
func IsEnabled() bool {
	return atomic.LoadInt32(&status) != stateDisabled
}

// SetLogger overrides the output logger. The returned function
// restores the previous one.
func SetLogger(l *log.Logger) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	oldLogger := logger
	logger = l
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = oldLogger
	}
}

// SetPattern sets the file pattern by hand, overriding environment
// and flag. The returned function restores the previous pattern.
func SetPattern(p string) (undo func()) {
	mutex.Lock()
	defer mutex.Unlock()
	oldPattern := pattern
	initializeWithPattern(p)
	return func() {
		mutex.Lock()
		defer mutex.Unlock()
		initializeWithPattern(oldPattern)
	}
}

func initializeWithPattern(p string) {
	pattern = p
	if p == "" {
		atomic.StoreInt32(&status, stateDisabled)
		return
	}
	patternRegexp = regexp.MustCompile(p)
	file2Debug = make(map[string]bool)
	minDepth = maxDepth
	atomic.StoreInt32(&status, stateEnabled)
}

func initialize() {
	if !atomic.CompareAndSwapInt32(&status, stateUninitialized, stateInitializing) {
		return
	}
	p := os.Getenv("MLOG")
	if flagPattern != nil && *flagPattern != "" {
		p = *flagPattern
	}
	initializeWithPattern(p)
}

// Printf is drop-in replacement of log.Printf. It has to look up the
// caller file when enabled, so Printf2 is preferable in hot paths.
func Printf(format string, args ...interface{}) {
	if atomic.LoadInt32(&status) == stateDisabled {
		return
	}
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	Printf2(file, format, args...)
}

// Printf2 logs if file matches the current pattern. The file is
// given by the caller ("btree/insert" and so on), so there is no
// runtime.Caller cost.
func Printf2(file string, format string, args ...interface{}) {
	st := atomic.LoadInt32(&status)
	if st == stateDisabled {
		return
	}
	mutex.Lock()
	defer mutex.Unlock()
	if st < stateDisabled {
		initialize()
		if atomic.LoadInt32(&status) != stateEnabled {
			return
		}
	}
	debug, ok := file2Debug[file]
	if !ok {
		debug = patternRegexp.MatchString(file)
		file2Debug[file] = debug
	}
	if !debug {
		return
	}
	depth := runtime.Callers(1, callers)
	if depth < minDepth {
		minDepth = depth
	}
	depth -= minDepth
	if depth > 0 {
		format = fmt.Sprint(strings.Repeat(".", depth), format)
	}
	if dumpGids {
		format = fmt.Sprintf("%8d %s", goroutineID(), format)
	}
	logger.Printf(format, args...)
}

// Panicf logs unconditionally and panics; it is for states the code
// cannot have reached unless something is badly broken.
func Panicf(format string, args ...interface{}) {
	log.Panicf(format, args...)
}

// From http://blog.sgmansfield.com/2015/12/goroutine-ids/
func goroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}
