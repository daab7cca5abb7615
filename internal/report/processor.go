package report

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"gerritbot/internal/format"
	"gerritbot/internal/gerrit"
)

type Processor struct {
	formatter format.Formatter
	bots      map[string]struct{}
	filter    *regexp.Regexp
	workers   int
	logger    *slog.Logger

	// recent remembers emitted messages across Process calls; nil disables
	// repeat suppression.
	recent *expirable.LRU[string, struct{}]
}

type Option func(*Processor)

// WithBots marks accounts (by email or username) as non-human.
func WithBots(bots []string) Option {
	return func(p *Processor) {
		for _, b := range bots {
			p.bots[strings.ToLower(b)] = struct{}{}
		}
	}
}

// WithFilter drops messages whose text matches re.
func WithFilter(re *regexp.Regexp) Option {
	return func(p *Processor) { p.filter = re }
}

func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithDedupe drops a message whose text was already emitted for the same
// change within ttl. At most capacity messages are remembered; a ttl of zero
// keeps them until they are evicted. A capacity below one disables it.
func WithDedupe(capacity int, ttl time.Duration) Option {
	return func(p *Processor) {
		if capacity < 1 {
			p.recent = nil
			return
		}
		p.recent = expirable.NewLRU[string, struct{}](capacity, nil, ttl)
	}
}

func NewProcessor(formatter format.Formatter, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		formatter: formatter,
		bots:      make(map[string]struct{}),
		workers:   1,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsHuman reports whether user is not one of the configured bots.
func (p *Processor) IsHuman(user gerrit.User) bool {
	for _, id := range []string{user.Email, user.Username} {
		if id == "" {
			continue
		}
		if _, ok := p.bots[strings.ToLower(id)]; ok {
			return false
		}
	}
	return true
}

// Process formats every approval of every comment-added event. Events are
// formatted concurrently but messages keep input order. A malformed event is
// logged and skipped; only cancellation of ctx fails the batch. With
// WithDedupe, a repeat of an earlier message is dropped and the first copy
// in input order is the one kept.
func (p *Processor) Process(ctx context.Context, events []gerrit.Event) ([]Message, Stats, error) {
	results := make([][]Message, len(events))
	var mu sync.Mutex
	stats := Stats{Events: len(events)}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.workers)
	for i, event := range events {
		i, event := i, event
		if event.Type != gerrit.EventCommentAdded {
			p.logger.Debug("skipping event", "type", event.Type, "change", event.Change.URL)
			continue
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			msgs, s := p.processEvent(event)
			results[i] = msgs
			mu.Lock()
			stats.add(s)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, stats, err
	}

	var messages []Message
	for _, msgs := range results {
		for _, msg := range msgs {
			if p.seen(msg) {
				stats.Duplicates++
				p.logger.Debug("dropping repeated message", "change", msg.ChangeURL, "approval", msg.ApprovalType)
				continue
			}
			stats.Emitted++
			messages = append(messages, msg)
		}
	}
	return messages, stats, nil
}

// seen records msg and reports whether it had already been recorded.
func (p *Processor) seen(msg Message) bool {
	if p.recent == nil {
		return false
	}
	key := msg.ChangeURL + "\x00" + msg.Text
	if _, ok := p.recent.Get(key); ok {
		return true
	}
	p.recent.Add(key, struct{}{})
	return false
}

func (p *Processor) processEvent(event gerrit.Event) ([]Message, Stats) {
	var msgs []Message
	var s Stats
	isHuman := p.IsHuman(event.Author)
	for _, approval := range event.Approvals {
		s.Approvals++
		text, ok, err := p.formatter.Approval(event, approval, isHuman)
		if err != nil {
			s.Failed++
			p.logger.Warn("failed to format approval",
				"change", event.Change.URL,
				"approval", approval.Type,
				"value", approval.Value,
				"error", err)
			continue
		}
		if !ok {
			s.Suppressed++
			continue
		}
		if p.filter != nil && p.filter.MatchString(text) {
			s.Filtered++
			p.logger.Debug("message filtered", "change", event.Change.URL, "approval", approval.Type)
			continue
		}
		msgs = append(msgs, Message{
			ID:           "msg_" + uuid.NewString(),
			ChangeURL:    event.Change.URL,
			Project:      event.Change.Project,
			ApprovalType: approval.Type,
			Text:         text,
			CreatedAt:    event.CreatedAt(),
		})
	}
	return msgs, s
}

func (s *Stats) add(o Stats) {
	s.Approvals += o.Approvals
	s.Suppressed += o.Suppressed
	s.Filtered += o.Filtered
	s.Failed += o.Failed
}
