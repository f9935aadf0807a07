// Package bot routes inbound chat messages to the reminder engine.
package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/notify"
	"remindbot/internal/reminder"
	"remindbot/internal/timeparse"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

// Scheduler is the slice of the reminder engine the router needs.
type Scheduler interface {
	Register(ctx context.Context, destination, message string, spec timeparse.Spec, policy reminder.Policy) (string, error)
}

const helpText = "I couldn't understand that time. Try one of:\n" +
	"  /remind tomorrow 9:00 ; stand-up\n" +
	"  /remind 9/15 afternoon 3 o'clock ; pay the invoice\n" +
	"  /remind every Monday ; weekly report\n" +
	"  /remind every month on the 1st ; rent\n" +
	"Recurring reminders take an optional count: /remind every Friday ; standup ; 4"

// Router turns chat messages into reminder registrations and replies with
// a confirmation, or with usage help when the time phrase does not resolve.
type Router struct {
	log       logx.Logger
	adapter   kit.Adapter
	resolver  *timeparse.Resolver
	scheduler Scheduler

	// defaultOccurrences bounds recurring reminders registered via chat.
	defaultOccurrences int

	now func() time.Time
}

func NewRouter(adapter kit.Adapter, resolver *timeparse.Resolver, scheduler Scheduler, defaultOccurrences int, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	if defaultOccurrences <= 0 {
		defaultOccurrences = reminder.DefaultMaxOccurrences
	}
	return &Router{
		log:                log,
		adapter:            adapter,
		resolver:           resolver,
		scheduler:          scheduler,
		defaultOccurrences: defaultOccurrences,
		now:                time.Now,
	}
}

// HandleUpdate processes one inbound update. Messages that do not address
// the bot are ignored.
func (r *Router) HandleUpdate(ctx context.Context, u kit.Update) {
	m := u.Message
	if m == nil || strings.TrimSpace(m.Text) == "" {
		return
	}
	phrase, message, count, addressed := parseCommand(m.Text, r.adapter.BotUsername())
	if !addressed {
		return
	}
	target := kit.ChatTarget{ChatID: m.ChatID, ThreadID: m.ThreadID}
	if phrase == "" || message == "" {
		r.reply(ctx, target, m.ID, helpText)
		return
	}

	spec, err := r.resolver.Resolve(phrase, r.now())
	if err != nil {
		if !errors.Is(err, timeparse.ErrUnparsable) {
			r.log.Warn("resolve failed", logx.String("phrase", phrase), logx.Err(err))
		}
		r.reply(ctx, target, m.ID, helpText)
		return
	}

	var policy reminder.Policy
	if spec.Recurring() {
		policy.MaxOccurrences = r.defaultOccurrences
		if count > 0 {
			policy.MaxOccurrences = count
		}
	}
	destination := notify.FormatDestination(target)
	id, err := r.scheduler.Register(ctx, destination, message, spec, policy)
	if err != nil {
		// The job is still scheduled when only persistence failed; the user
		// gets their reminder either way.
		r.log.Error("register reminder", logx.String("job", id), logx.Err(err))
	}
	r.reply(ctx, target, m.ID, confirmation(spec, policy.MaxOccurrences))
	r.log.Info("reminder accepted",
		logx.String("job", id),
		logx.String("destination", destination),
		logx.String("when", spec.Label))
}

func confirmation(spec timeparse.Spec, occurrences int) string {
	if spec.Recurring() {
		return "Reminder set for " + spec.Label + " (up to " + strconv.Itoa(occurrences) + " occurrences)."
	}
	return "Reminder set for " + spec.Label + "."
}

func (r *Router) reply(ctx context.Context, to kit.ChatTarget, replyTo int, text string) {
	if _, err := r.adapter.SendText(ctx, to, text, &kit.SendOptions{ReplyTo: replyTo}); err != nil {
		r.log.Warn("reply failed", logx.Err(err))
	}
}

var reRemindWord = regexp.MustCompile(`(?i)\bremind\b`)

// parseCommand reports whether text addresses the bot and, if so, the time
// phrase, message, and optional requested occurrence count (0 when absent).
// Empty phrase/message parts mean a recognized but malformed request.
//
// Supported forms:
//
//	/remind <phrase> ; <message> [; <count>]
//	@bot <phrase> remind <message>
func parseCommand(text, botUsername string) (phrase, message string, count int, addressed bool) {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "/remind"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '@') {
		// Allow the /remind@botname form telegram clients send in groups.
		if strings.HasPrefix(rest, "@") {
			name, tail, _ := strings.Cut(rest[1:], " ")
			if !strings.EqualFold(name, botUsername) {
				return "", "", 0, false
			}
			rest = tail
		}
		p, m, _ := strings.Cut(rest, ";")
		message = strings.TrimSpace(m)
		// A trailing "; N" segment is a requested occurrence count, not
		// message text.
		if i := strings.LastIndexByte(message, ';'); i >= 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(message[i+1:])); err == nil {
				message = strings.TrimSpace(message[:i])
				count = n
			}
		}
		return strings.TrimSpace(p), message, count, true
	}

	if botUsername == "" {
		return "", "", 0, false
	}
	mention := "@" + botUsername
	if !strings.Contains(strings.ToLower(text), strings.ToLower(mention)) {
		return "", "", 0, false
	}
	stripped := reMention(botUsername).ReplaceAllString(text, " ")
	loc := reRemindWord.FindStringIndex(stripped)
	if loc == nil {
		return "", "", 0, true
	}
	return strings.TrimSpace(stripped[:loc[0]]), strings.TrimSpace(stripped[loc[1]:]), 0, true
}

func reMention(botUsername string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(botUsername) + `\b`)
}
