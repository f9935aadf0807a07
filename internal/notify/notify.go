// Package notify delivers reminder text over a transport adapter with rate
// limiting and bounded retry.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

// ErrBadDestination reports a destination string that does not name a chat.
var ErrBadDestination = errors.New("bad destination")

type Config struct {
	// RatePerSec caps outbound sends (token bucket, burst = rate).
	RatePerSec int
	// RetryMax is the number of retries after the first attempt.
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
}

// Service sends reminder notifications. It is safe for concurrent use and
// supports live reconfiguration via Apply.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	adapter kit.Adapter
	log     logx.Logger
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{adapter: adapter, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Send delivers text to a destination, retrying transient failures with
// exponential backoff. It blocks until delivered, exhausted, or ctx is done.
func (s *Service) Send(ctx context.Context, destination, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := ParseDestination(destination)
	if err != nil {
		return err
	}

	// Config snapshot for this send.
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	attempts := 1 + cfg.RetryMax
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		_, err := s.adapter.SendText(callCtx, target, text, nil)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		s.log.Debug("send failed",
			logx.String("destination", destination),
			logx.Int("attempt", attempt),
			logx.Err(err))
		if attempt >= attempts {
			break
		}
		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		}
	}
	return fmt.Errorf("send to %s: %w", destination, lastErr)
}

// FormatDestination renders a chat target as the destination string the
// reminder store persists: "<chatID>" or "<chatID>:<threadID>".
func FormatDestination(t kit.ChatTarget) string {
	if t.ThreadID != 0 {
		return fmt.Sprintf("%d:%d", t.ChatID, t.ThreadID)
	}
	return strconv.FormatInt(t.ChatID, 10)
}

// ParseDestination is the inverse of FormatDestination.
func ParseDestination(s string) (kit.ChatTarget, error) {
	chatPart, threadPart, hasThread := strings.Cut(s, ":")
	chatID, err := strconv.ParseInt(chatPart, 10, 64)
	if err != nil {
		return kit.ChatTarget{}, fmt.Errorf("%w: %q", ErrBadDestination, s)
	}
	t := kit.ChatTarget{ChatID: chatID}
	if hasThread {
		threadID, err := strconv.Atoi(threadPart)
		if err != nil {
			return kit.ChatTarget{}, fmt.Errorf("%w: %q", ErrBadDestination, s)
		}
		t.ThreadID = threadID
	}
	return t, nil
}

func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.RetryMaxDelay {
			d = cfg.RetryMaxDelay
			break
		}
	}
	// Jitter 0.7..1.3
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d > cfg.RetryMaxDelay {
		d = cfg.RetryMaxDelay
	}
	return d
}
