package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dshills/rewind/internal/canvas"
	"github.com/dshills/rewind/internal/engine"
	"github.com/dshills/rewind/internal/script"
)

// session is a canvas tracked by an engine with a script runtime on top.
type session struct {
	canvas  *canvas.Canvas
	engine  *engine.Engine
	runtime *script.Runtime
}

// newSession creates a fresh session. Script print output goes to out.
func (o *globalOptions) newSession(out io.Writer, timeout time.Duration) (*session, error) {
	c := canvas.New()
	e, err := o.newEngine(c)
	if err != nil {
		return nil, err
	}
	canvas.Track(c, e)

	rt := script.NewRuntime(c, e, o.logger,
		script.WithExecutionTimeout(timeout),
		script.WithOutput(out),
	)
	return &session{canvas: c, engine: e, runtime: rt}, nil
}

// runScript runs the script at path in a new session. The session is
// returned even when the script fails, so the history up to the failure
// can still be reported.
func (o *globalOptions) runScript(ctx context.Context, path string, out io.Writer, timeout time.Duration) (*session, error) {
	s, err := o.newSession(out, timeout)
	if err != nil {
		return nil, err
	}
	if err := s.runtime.RunFile(ctx, path); err != nil {
		return s, err
	}
	return s, nil
}

func (s *session) Close() error {
	return errors.Join(s.runtime.Close(), s.engine.Close())
}
