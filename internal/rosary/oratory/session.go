package oratory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"divinity/internal/cli/scheme/colours"
	"divinity/internal/config"
	"divinity/internal/domain/rosary"
	"divinity/internal/rosary/player"
)

// ErrStalled is returned by Autoplay when narration stops without reaching
// the end of the rosary, e.g. because the speech engine failed.
var ErrStalled = errors.New("narration stalled")

const stallCheckInterval = 250 * time.Millisecond

// render prints engine transitions. It runs outside the engine lock.
func (o *Oratory) render(ev player.Event) {
	st := ev.State
	switch ev.Kind {
	case player.EventScriptSelected, player.EventMoved:
		o.renderStep(st)
	case player.EventSpeechStarted:
		o.printf(colours.Muted, "   🔊 speaking...\n")
	case player.EventStopped:
		o.printf(colours.Warning, "   ⏹️  Stopped\n")
	case player.EventFinished:
		o.println()
		o.printf(colours.Success, "✨ The %s Mysteries are complete. Amen. ✨\n", st.Mystery.Title())
	case player.EventCleared:
		o.printf(colours.Info, "🔄 Choose a mystery to continue.\n")
	}
}

func (o *Oratory) renderStep(st player.State) {
	if !st.Loaded {
		return
	}
	text := rosary.Resolve(st.Step, o.Catalog, o.Player.Preferences().Language)

	o.printMu.Lock()
	defer o.printMu.Unlock()
	fmt.Fprintln(o.out)
	colours.Progress.Fprintf(o.out, "[%d/%d] ", st.Position+1, st.Length)
	colours.Title.Fprintln(o.out, st.Step.Title)
	if rosary.IsMissing(text) {
		colours.Warning.Fprintln(o.out, text)
		return
	}
	colours.Prayer.Fprintln(o.out, text)
}

// Rosary runs the interactive player. The optional argument names the
// mystery; without it the day's mystery is used.
func (o *Oratory) Rosary(ctx context.Context, args []string) error {
	m := o.today()
	if len(args) > 0 {
		parsed, err := rosary.ParseMystery(args[0])
		if err != nil {
			return err
		}
		m = parsed
	}

	o.printf(colours.Mystery, "\n📿 The %s Mysteries\n", m.Title())
	o.printHelp()
	o.Player.SelectMystery(m)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(o.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			o.Player.Stop()
			return nil
		case line, ok := <-lines:
			if !ok {
				o.Player.Stop()
				return nil
			}
			if quit := o.handle(ctx, strings.ToLower(strings.TrimSpace(line)), lines); quit {
				o.Player.Stop()
				o.printf(colours.Warning, "👋 Peace be with you.\n")
				return nil
			}
		}
	}
}

func (o *Oratory) handle(ctx context.Context, input string, lines <-chan string) bool {
	st := o.Player.State()
	switch input {
	case "", "s", "speak", "stop":
		if st.Speaking() {
			o.Player.Stop()
		} else {
			o.Player.SpeakCurrent(o.Player.Preferences())
		}
	case "b", "back":
		if st.Speaking() {
			o.printf(colours.Muted, "   Stop narration before moving.\n")
			return false
		}
		if st.AtStart() {
			o.printf(colours.Muted, "   Already at the first step.\n")
			return false
		}
		o.Player.Back()
	case "n", "next":
		if st.Speaking() {
			o.printf(colours.Muted, "   Stop narration before moving.\n")
			return false
		}
		if st.AtEnd() {
			o.printf(colours.Muted, "   Already at the last step.\n")
			return false
		}
		o.Player.Next()
	case "a", "auto":
		o.toggleAutoAdvance()
	case "m", "mystery":
		o.Player.Clear()
		if m, ok := o.chooseMystery(ctx, lines); ok {
			o.printf(colours.Mystery, "\n📿 The %s Mysteries\n", m.Title())
			o.Player.SelectMystery(m)
		}
	case "q", "quit":
		return true
	case "?", "h", "help":
		o.printHelp()
	default:
		o.printf(colours.Info, "ℹ️  Unknown command %q, type ? for help\n", input)
	}
	return false
}

func (o *Oratory) toggleAutoAdvance() {
	prefs := o.Player.Preferences()
	prefs.AutoAdvance = !prefs.AutoAdvance
	o.Player.SetPreferences(prefs)
	o.Settings.AutoAdvance = prefs.AutoAdvance

	state := "off"
	if prefs.AutoAdvance {
		state = "on"
	}
	o.printf(colours.Info, "   Auto-advance %s\n", state)

	if err := config.Set(config.KeyAutoAdvance, strconv.FormatBool(prefs.AutoAdvance)); err != nil {
		logrus.WithError(err).Warn("Failed to save auto-advance preference")
	}
}

func (o *Oratory) chooseMystery(ctx context.Context, lines <-chan string) (rosary.Mystery, bool) {
	today := o.today()
	for i, m := range rosary.Mysteries() {
		marker := ""
		if m == today {
			marker = " (today)"
		}
		o.printf(colours.Info, "  %d. %s%s\n", i+1, m.Title(), marker)
	}
	o.printf(colours.Prompt, "🌟 Enter a number or name (Enter for today's): ")

	select {
	case <-ctx.Done():
		return 0, false
	case line, ok := <-lines:
		if !ok {
			return 0, false
		}
		return o.parseChoice(strings.TrimSpace(line))
	}
}

func (o *Oratory) parseChoice(input string) (rosary.Mystery, bool) {
	if input == "" {
		return o.today(), true
	}
	if n, err := strconv.Atoi(input); err == nil {
		all := rosary.Mysteries()
		if n >= 1 && n <= len(all) {
			return all[n-1], true
		}
	}
	m, err := rosary.ParseMystery(input)
	if err != nil {
		o.printf(colours.Error, "❌ %v\n", err)
		return 0, false
	}
	return m, true
}

func (o *Oratory) printHelp() {
	o.printf(colours.Muted, "   Enter/s speak or stop · b back · n next · a auto-advance · m mystery · q quit\n")
}

// Autoplay narrates the day's mystery unattended until the last step is
// spoken, the user interrupts, or narration stalls.
func (o *Oratory) Autoplay(ctx context.Context) error {
	m := o.today()
	done := make(chan player.EventKind, 1)
	o.Player.OnChange(func(ev player.Event) {
		if ev.Kind == player.EventFinished || ev.Kind == player.EventStopped {
			select {
			case done <- ev.Kind:
			default:
			}
		}
	})

	prefs := o.Player.Preferences()
	prefs.AutoAdvance = true

	o.printf(colours.Mystery, "\n📿 Praying the %s Mysteries\n", m.Title())
	o.Player.SelectMystery(m)
	o.Player.SpeakCurrent(prefs)

	ticker := time.NewTicker(stallCheckInterval)
	defer ticker.Stop()

	idle := 0
	for {
		select {
		case <-ctx.Done():
			o.Player.Stop()
			return nil
		case kind := <-done:
			logrus.WithField("event", kind).Debug("Autoplay ended")
			return nil
		case <-ticker.C:
			if o.Player.State().Speaking() {
				idle = 0
				continue
			}
			idle++
			if idle >= 2 {
				select {
				case <-done:
					return nil
				default:
				}
				st := o.Player.State()
				return fmt.Errorf("%w at step %d of %d", ErrStalled, st.Position+1, st.Length)
			}
		}
	}
}
