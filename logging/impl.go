package logging

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl is the Logger behind every constructor in this package.
type impl struct {
	name  string
	level AtomicLevel
	// now stamps entries, in UTC or local time depending on the constructor.
	now  func() time.Time
	sink *sink
}

// sink holds the appenders of a logger and all of its subloggers.
type sink struct {
	mu        sync.RWMutex
	appenders []Appender
}

func newImpl(name string, level Level, now func() time.Time, appenders ...Appender) *impl {
	return &impl{
		name:  name,
		level: NewAtomicLevelAt(level),
		now:   now,
		sink:  &sink{appenders: appenders},
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func (s *sink) add(appender Appender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appenders = append(s.appenders, appender)
}

func (s *sink) write(entry zapcore.Entry, fields []zapcore.Field) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, appender := range s.appenders {
		if err := appender.Write(entry, fields); err != nil {
			//nolint:errcheck
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (s *sink) sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var errs error
	for _, appender := range s.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

// AddAppender adds an output to this logger, its parents and its subloggers.
func (imp *impl) AddAppender(appender Appender) {
	imp.sink.add(appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{name: name, level: NewAtomicLevelAt(imp.level.Get()), now: imp.now, sink: imp.sink}
}

func (imp *impl) Sync() error {
	return imp.sink.sync()
}

// message lazily produces the text and fields of an entry, so disabled levels cost no formatting.
type message func() (string, []zapcore.Field)

func sprint(args []interface{}) message {
	return func() (string, []zapcore.Field) { return fmt.Sprint(args...), nil }
}

func sprintf(template string, args []interface{}) message {
	return func() (string, []zapcore.Field) { return fmt.Sprintf(template, args...), nil }
}

// withFields pairs keysAndValues up as structured fields. A trailing key without a value is kept and marked.
func withFields(msg string, keysAndValues []interface{}) message {
	return func() (string, []zapcore.Field) {
		fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
		for i := 0; i < len(keysAndValues); i += 2 {
			key := fmt.Sprint(keysAndValues[i])
			if i+1 == len(keysAndValues) {
				fields = append(fields, zap.String(key, "unpaired log key"))
				break
			}
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		}
		return msg, fields
	}
}

// emit must be called straight from an exported logging method: the recorded caller is two frames up.
func (imp *impl) emit(level Level, m message) {
	if level < imp.level.Get() {
		return
	}
	text, fields := m()
	imp.sink.write(zapcore.Entry{
		LoggerName: imp.name,
		Time:       imp.now(),
		Level:      level.AsZap(),
		Message:    text,
		Caller:     caller(3),
	}, fields)
}

// caller describes the frame depth levels above itself.
func caller(depth int) zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(depth)
	if !ok {
		return zapcore.EntryCaller{}
	}
	ec := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		ec.Function = fn.Name()
	}
	return ec
}

func (imp *impl) Debug(args ...interface{}) { imp.emit(DEBUG, sprint(args)) }
func (imp *impl) Debugf(template string, args ...interface{}) { imp.emit(DEBUG, sprintf(template, args)) }
func (imp *impl) Debugw(msg string, kv ...interface{}) { imp.emit(DEBUG, withFields(msg, kv)) }
func (imp *impl) Info(args ...interface{}) { imp.emit(INFO, sprint(args)) }
func (imp *impl) Infof(template string, args ...interface{}) { imp.emit(INFO, sprintf(template, args)) }
func (imp *impl) Infow(msg string, kv ...interface{}) { imp.emit(INFO, withFields(msg, kv)) }
func (imp *impl) Warn(args ...interface{}) { imp.emit(WARN, sprint(args)) }
func (imp *impl) Warnf(template string, args ...interface{}) { imp.emit(WARN, sprintf(template, args)) }
func (imp *impl) Warnw(msg string, kv ...interface{}) { imp.emit(WARN, withFields(msg, kv)) }
func (imp *impl) Error(args ...interface{}) { imp.emit(ERROR, sprint(args)) }
func (imp *impl) Errorf(template string, args ...interface{}) { imp.emit(ERROR, sprintf(template, args)) }
func (imp *impl) Errorw(msg string, kv ...interface{}) { imp.emit(ERROR, withFields(msg, kv)) }
