package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

// a little under the 5000 byte request limit
const googleChunkRunes = 4800

// GoogleSynthesizer narrates through Google Cloud Text-to-Speech. Audio is
// cached as mp3 under the cache directory and played through beep.
type GoogleSynthesizer struct {
	client   *texttospeech.Client
	ctx      context.Context
	voice    string
	cacheDir string
	cache    *AudioCache

	tokens     tokenSource
	mu         sync.Mutex
	current    *playback
	sampleRate beep.SampleRate
}

type playback struct {
	token     Token
	streamers []beep.StreamSeekCloser
}

func newGoogleSynthesizer(config Config) (*GoogleSynthesizer, error) {
	ctx := context.Background()
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &GoogleSynthesizer{
		client:   client,
		ctx:      ctx,
		voice:    config.Voice,
		cacheDir: config.CacheDir,
		cache:    NewAudioCache(config.CacheDir, DefaultCacheMaxAge),
	}, nil
}

func (g *GoogleSynthesizer) Name() string {
	return EngineTypeGoogleClassic.String()
}

func (g *GoogleSynthesizer) Speak(req Request, done func(Token)) (Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil {
		return 0, ErrBusy
	}
	if !explicitVoice(req.Voice) {
		req.Voice = g.voice
	}

	p := &playback{token: g.tokens.next()}
	g.current = p

	// Synthesis is a network round trip; Speak must not block on it.
	go g.play(p, req, done)
	return p.token, nil
}

func (g *GoogleSynthesizer) play(p *playback, req Request, done func(Token)) {
	paths, err := g.synthesize(req)
	if err != nil {
		logrus.WithError(err).Warn("Google TTS synthesis failed")
		g.finish(p, done)
		return
	}

	decoded, format, err := decodeAll(paths)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load cached audio")
		g.finish(p, done)
		return
	}

	g.mu.Lock()
	if g.current != p {
		// canceled while synthesizing
		g.mu.Unlock()
		closeAll(decoded)
		return
	}
	if len(decoded) == 0 {
		g.mu.Unlock()
		g.finish(p, done)
		return
	}
	if g.sampleRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			g.mu.Unlock()
			closeAll(decoded)
			logrus.WithError(err).Warn("Failed to initialise speaker")
			g.finish(p, done)
			return
		}
		g.sampleRate = format.SampleRate
	}
	p.streamers = decoded

	seq := make([]beep.Streamer, 0, len(decoded)+1)
	for _, s := range decoded {
		seq = append(seq, s)
	}
	seq = append(seq, beep.Callback(func() {
		// runs inside the speaker's lock; hop off before calling back
		go g.finish(p, done)
	}))
	speaker.Play(beep.Seq(seq...))
	g.mu.Unlock()
}

func decodeAll(paths []string) ([]beep.StreamSeekCloser, beep.Format, error) {
	var format beep.Format
	decoded := make([]beep.StreamSeekCloser, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll(decoded)
			return nil, format, fmt.Errorf("failed to open cached MP3 %s: %w", path, err)
		}
		s, f2, err := mp3.Decode(f)
		if err != nil {
			f.Close()
			closeAll(decoded)
			return nil, format, fmt.Errorf("failed to decode MP3 %s: %w", path, err)
		}
		decoded = append(decoded, s)
		format = f2
	}
	return decoded, format, nil
}

func (g *GoogleSynthesizer) finish(p *playback, done func(Token)) {
	g.mu.Lock()
	active := g.current == p
	if active {
		g.current = nil
	}
	streamers := p.streamers
	p.streamers = nil
	g.mu.Unlock()

	closeAll(streamers)
	if active && done != nil {
		done(p.token)
	}
}

func closeAll(streamers []beep.StreamSeekCloser) {
	for _, s := range streamers {
		s.Close()
	}
}

func (g *GoogleSynthesizer) Cancel() error {
	g.mu.Lock()
	p := g.current
	g.current = nil
	initialised := g.sampleRate != 0
	var streamers []beep.StreamSeekCloser
	if p != nil {
		streamers = p.streamers
		p.streamers = nil
	}
	g.mu.Unlock()

	if p == nil {
		return nil
	}
	if initialised {
		speaker.Clear()
	}
	closeAll(streamers)
	return nil
}

// synthesize returns the cached mp3 chunks for req, calling the API for any
// chunk not yet on disk.
func (g *GoogleSynthesizer) synthesize(req Request) ([]string, error) {
	tag := canonicalTag(req.Language).String()
	key := md5Sum(fmt.Sprintf("%s|%s|%s|%.2f", req.Text, tag, req.Voice, req.Rate))[:16]
	chunks := splitIntoChunks(req.Text, googleChunkRunes)

	paths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		path := filepath.Join(g.cacheDir, fmt.Sprintf("%s_%d.mp3", key, i))
		paths = append(paths, path)
		if _, err := os.Stat(path); err == nil {
			g.cache.touch(path)
			continue
		}

		voice := &texttospeechpb.VoiceSelectionParams{LanguageCode: tag}
		if explicitVoice(req.Voice) {
			voice.Name = req.Voice
		}
		audioCfg := &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		}
		// Chirp voices don't support speakingRate
		if !strings.Contains(strings.ToLower(voice.Name), "chirp") {
			audioCfg.SpeakingRate = Multiplier(req.Rate)
		}

		resp, err := g.client.SynthesizeSpeech(g.ctx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice:       voice,
			AudioConfig: audioCfg,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d: %w", i, err)
		}
		if err := os.WriteFile(path, resp.AudioContent, 0644); err != nil {
			return nil, fmt.Errorf("failed to write MP3 chunk %d to %s: %w", i, path, err)
		}

		logrus.WithFields(logrus.Fields{
			"chunk": i + 1,
			"of":    len(chunks),
			"file":  path,
		}).Debug("Cached audio chunk")
	}
	return paths, nil
}

func (g *GoogleSynthesizer) Voices() ([]string, error) {
	resp, err := g.client.ListVoices(g.ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	voices := []string{}
	for _, v := range resp.Voices {
		voices = append(voices, v.Name)
	}
	return voices, nil
}

// Close releases the API client.
func (g *GoogleSynthesizer) Close() error {
	g.Cancel()
	return g.client.Close()
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
