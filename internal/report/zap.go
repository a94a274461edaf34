package report

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tmater/boostprobe/internal/proto"
)

// Log emits one structured log record per case and one per run.
type Log struct {
	logger *zap.Logger
}

// NewLog writes JSON log lines to w.
func NewLog(w io.Writer) *Log {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zap.InfoLevel)
	return NewLogWith(zap.New(core))
}

// NewLogWith reports through an existing logger.
func NewLogWith(logger *zap.Logger) *Log {
	return &Log{logger: logger.Named("boostprobe")}
}

// Start logs the target and case count.
func (l *Log) Start(target string, cases []proto.ProbeCase) {
	l.logger.Info("run started", zap.String("target", target), zap.Int("cases", len(cases)))
}

// Result logs at info when the case matched and at warn otherwise.
func (l *Log) Result(r proto.ProbeResult) {
	fields := []zap.Field{
		zap.String("case", r.Case.Label()),
		zap.Int("size_kb", r.Case.SizeKB),
		zap.Int("payload_bytes", r.PayloadSize),
		zap.String("expected", string(r.Case.Expect)),
		zap.String("actual", string(r.Actual)),
		zap.Int("status", r.StatusCode),
		zap.Bool("matched", r.Matched),
		zap.Duration("latency", r.Latency),
	}
	if r.Detail != "" {
		fields = append(fields, zap.String("detail", r.Detail))
	}
	if r.Matched {
		l.logger.Info("probe passed", fields...)
		return
	}
	l.logger.Warn("probe failed", fields...)
}

// Finish logs the run verdict and flushes the logger.
func (l *Log) Finish(s proto.RunSummary) {
	matched, failed := s.Counts()
	fields := []zap.Field{
		zap.String("run_id", s.RunID),
		zap.String("target", s.Target),
		zap.Int("matched", matched),
		zap.Int("failed", failed),
		zap.Bool("passed", s.Passed),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
	}
	if s.Passed {
		l.logger.Info("run finished", fields...)
	} else {
		l.logger.Error("run finished", fields...)
	}
	_ = l.logger.Sync()
}
