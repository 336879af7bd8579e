package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// commandSpec is the process that narrates one request. The text is fed on stdin.
type commandSpec struct {
	path string
	args []string
}

// CommandSynthesizer narrates by running an external program per request.
// espeak, macOS say and Windows PowerShell share this runner and differ only
// in how a Request becomes a command line.
type CommandSynthesizer struct {
	name   string
	build  func(Request) (commandSpec, error)
	voices func() ([]string, error)

	tokens  tokenSource
	mutex   sync.Mutex
	current *utterance
}

type utterance struct {
	token  Token
	cancel context.CancelFunc
}

func (c *CommandSynthesizer) Name() string {
	return c.name
}

func (c *CommandSynthesizer) Speak(req Request, done func(Token)) (Token, error) {
	spec, err := c.build(req)
	if err != nil {
		return 0, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.current != nil {
		return 0, ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, spec.path, spec.args...)
	cmd.Stdin = strings.NewReader(req.Text)

	if err := cmd.Start(); err != nil {
		cancel()
		return 0, fmt.Errorf("failed to start %s: %w", c.name, err)
	}

	u := &utterance{token: c.tokens.next(), cancel: cancel}
	c.current = u

	logrus.WithFields(logrus.Fields{
		"engine": c.name,
		"token":  u.token,
		"lang":   req.Language,
	}).Debug("Speech process started")

	go c.wait(u, cmd, done)
	return u.token, nil
}

func (c *CommandSynthesizer) wait(u *utterance, cmd *exec.Cmd, done func(Token)) {
	err := cmd.Wait()
	u.cancel()

	c.mutex.Lock()
	active := c.current == u
	if active {
		c.current = nil
	}
	c.mutex.Unlock()

	// Canceled utterances never report completion.
	if !active {
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("engine", c.name).Warn("Speech process failed")
	}
	if done != nil {
		done(u.token)
	}
}

// Cancel kills the running process, if any.
func (c *CommandSynthesizer) Cancel() error {
	c.mutex.Lock()
	u := c.current
	c.current = nil
	c.mutex.Unlock()

	if u != nil {
		u.cancel()
		logrus.WithFields(logrus.Fields{"engine": c.name, "token": u.token}).Debug("Speech process canceled")
	}
	return nil
}

func (c *CommandSynthesizer) Voices() ([]string, error) {
	if c.voices == nil {
		return nil, nil
	}
	return c.voices()
}
