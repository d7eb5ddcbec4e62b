package batch2d

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggerSilentUntilSet(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var buf bytes.Buffer
	custom := debugLogger(&buf)

	tests := []struct {
		name   string
		set    *slog.Logger
		silent bool
	}{
		{"default", nil, true},
		{"custom", custom, false},
		{"reset with nil", nil, true},
	}
	for _, tt := range tests {
		SetLogger(tt.set)
		l := Logger()
		if l == nil {
			t.Fatalf("%s: Logger() = nil", tt.name)
		}
		if tt.silent {
			if l.Enabled(context.Background(), slog.LevelError) {
				t.Errorf("%s: logger enabled at error level, want silent", tt.name)
			}
			continue
		}
		if l != tt.set {
			t.Errorf("%s: Logger() did not return the logger passed to SetLogger", tt.name)
		}
	}
}

// TestRendererLoggerChoice checks which logger receives a renderer's
// lifecycle records.
func TestRendererLoggerChoice(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	tests := []struct {
		name     string
		own      bool
		wantPkg  bool
		wantOwn  bool
		renderer string
	}{
		{name: "package logger", wantPkg: true, renderer: "rect"},
		{name: "WithLogger wins", own: true, wantOwn: true, renderer: "line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pkg, own bytes.Buffer
			SetLogger(debugLogger(&pkg))
			var opts []Option
			if tt.own {
				opts = append(opts, WithLogger(debugLogger(&own)))
			}

			dev, pass := newTestDevice(t)
			var destroy func()
			switch tt.renderer {
			case "rect":
				rr, err := NewRectRenderer(dev, pass, opts...)
				if err != nil {
					t.Fatalf("NewRectRenderer() = %v", err)
				}
				destroy = rr.Destroy
			case "line":
				lr, err := NewLineRenderer(dev, pass, opts...)
				if err != nil {
					t.Fatalf("NewLineRenderer() = %v", err)
				}
				destroy = lr.Destroy
			}
			destroy()

			for _, c := range []struct {
				buf  *bytes.Buffer
				want bool
				name string
			}{{&pkg, tt.wantPkg, "package"}, {&own, tt.wantOwn, "renderer"}} {
				out := c.buf.String()
				got := strings.Contains(out, "renderer created") &&
					strings.Contains(out, "renderer destroyed") &&
					strings.Contains(out, "renderer="+tt.renderer)
				if got != c.want {
					t.Errorf("%s logger has lifecycle records = %v, want %v: %s", c.name, got, c.want, out)
				}
			}
		})
	}
}

func TestSetLoggerWhileLogging(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetLogger(slog.Default())
				SetLogger(nil)
				return
			}
			Logger().Debug("flush", "primitives", i)
		}()
	}
	wg.Wait()
}
