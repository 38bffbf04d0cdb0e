package logging

import (
	"context"
	"net/url"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golift.io/rotatorr"
	"golift.io/rotatorr/timerotator"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

type Option func(*zap.Config)

func WithLogLevel(level string) Option {
	return func(c *zap.Config) {
		ll := zapcore.InfoLevel
		_ = ll.Set(level)
		c.Level.SetLevel(ll)
	}
}

func WithLogFormat(format string) Option {
	return func(c *zap.Config) {
		switch format {
		case LogFormatConsole:
			c.Encoding = LogFormatConsole
		default:
			c.Encoding = LogFormatJSON
		}
	}
}

const rotatorrScheme = "rotatorr"

// WithOutputPaths routes non-stdio paths through the rotating file sink.
func WithOutputPaths(paths []string) Option {
	return func(c *zap.Config) {
		p := make([]string, 0, len(paths))
		for _, path := range paths {
			switch path {
			case "stdout", "stderr":
				p = append(p, path)
			default:
				u := &url.URL{Scheme: rotatorrScheme, Path: path}
				p = append(p, u.String())
			}
		}
		c.OutputPaths = p
	}
}

type rotatorSink struct {
	*rotatorr.Logger
}

func (s *rotatorSink) Sync() error {
	return nil
}

var (
	sinksMu sync.Mutex
	sinks   = map[string]zap.Sink{}
)

func openSink(path string) (zap.Sink, error) {
	sinksMu.Lock()
	defer sinksMu.Unlock()

	if sink, ok := sinks[path]; ok {
		return sink, nil
	}

	rr, err := rotatorr.New(&rotatorr.Config{
		FileSize: 1024 * 1024 * 10,
		Filepath: path,
		Rotatorr: &timerotator.Layout{FileCount: 10},
	})
	if err != nil {
		return nil, err
	}

	sink := &rotatorSink{Logger: rr}
	sinks[path] = sink
	return sink, nil
}

func init() {
	err := zap.RegisterSink(rotatorrScheme, func(u *url.URL) (zap.Sink, error) {
		return openSink(u.Path)
	})
	if err != nil {
		panic(err)
	}
}

// Init builds a zap logger and attaches it to the returned context. All
// downstream packages pull the logger back out with ctxzap.Extract.
func Init(ctx context.Context, opts ...Option) (context.Context, error) {
	zc := zap.NewProductionConfig()
	zc.Sampling = nil
	zc.DisableStacktrace = true

	for _, opt := range opts {
		opt(&zc)
	}

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)

	return ctxzap.ToContext(ctx, l), nil
}
