// SPDX-License-Identifier: Apache-2.0

package executor

import "github.com/pterm/pterm"

// Logger reports plan progress as Run works through each step.
type Logger interface {
	LogStepStart(Step)
	LogStepComplete(Step)
	LogStepError(Step, error)
}

type ptermLogger struct {
	logger pterm.Logger
}

// NewLogger returns a Logger backed by pterm's structured default logger.
func NewLogger() Logger {
	return &ptermLogger{logger: pterm.DefaultLogger}
}

func (l *ptermLogger) LogStepStart(s Step) {
	l.logger.Info(string(s.Action), l.logger.Args("fqn", s.Samizdat.FQN().String()))
}

func (l *ptermLogger) LogStepComplete(s Step) {
	l.logger.Info(string(s.Action)+" done", l.logger.Args("fqn", s.Samizdat.FQN().String()))
}

func (l *ptermLogger) LogStepError(s Step, err error) {
	l.logger.Error(string(s.Action)+" failed", l.logger.Args("fqn", s.Samizdat.FQN().String(), "error", err))
}

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything, for tests.
func NewNoopLogger() Logger { return noopLogger{} }

func (noopLogger) LogStepStart(Step)        {}
func (noopLogger) LogStepComplete(Step)     {}
func (noopLogger) LogStepError(Step, error) {}
