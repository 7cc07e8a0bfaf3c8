package service

import (
	"context"
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"golang.org/x/sync/errgroup"

	"momento/internal/api"
)

// DigestBackend is what the digest reads.
type DigestBackend interface {
	Occasions(ctx context.Context, owner string) ([]api.Occasion, error)
	Checklist(ctx context.Context, owner string) ([]api.ChecklistEntry, error)
	IncomingInvites(ctx context.Context, userID string) ([]api.Invite, error)
}

// UpcomingOccasion is an occasion with its next date inside the horizon.
type UpcomingOccasion struct {
	Occasion api.Occasion
	Next     time.Time
	DaysLeft int
}

// DigestService builds the periodic upcoming-occasions report.
type DigestService struct {
	horizonDays int
}

func NewDigestService(horizonDays int) *DigestService {
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &DigestService{horizonDays: horizonDays}
}

func (s *DigestService) HorizonDays() int { return s.horizonDays }

// Summary renders the digest for user as Telegram HTML.
func (s *DigestService) Summary(ctx context.Context, backend DigestBackend, user api.User, now time.Time) (string, error) {
	var (
		occasions []api.Occasion
		checklist []api.ChecklistEntry
		invites   []api.Invite
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		occasions, err = backend.Occasions(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		checklist, err = backend.Checklist(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		invites, err = backend.IncomingInvites(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	upcoming := Upcoming(occasions, now, s.horizonDays)
	open := 0
	for _, entry := range checklist {
		if !entry.Completed {
			open++
		}
	}
	pending := len(Classify(invites).Pending)

	var builder strings.Builder
	builder.WriteString("📋 <b>Momento digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString(fmt.Sprintf("🎉 <b>Next %d days</b>\n", s.horizonDays))
	if len(upcoming) == 0 {
		builder.WriteString("— nothing coming up\n")
	} else {
		for _, u := range upcoming {
			builder.WriteString(formatUpcoming(u))
		}
	}

	builder.WriteString("\n✅ <b>Checklist</b>\n")
	if open == 0 {
		builder.WriteString("— all done\n")
	} else {
		builder.WriteString(fmt.Sprintf("— %d open item(s)\n", open))
	}

	if pending > 0 {
		builder.WriteString(fmt.Sprintf("\n📨 %d pending invite(s), see /invites\n", pending))
	}

	return strings.TrimSpace(builder.String()), nil
}

// Upcoming returns occasions whose next date is within horizonDays of now,
// soonest first. Past dates repeat yearly.
func Upcoming(occasions []api.Occasion, now time.Time, horizonDays int) []UpcomingOccasion {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var out []UpcomingOccasion
	for _, occ := range occasions {
		if occ.Date.IsZero() {
			continue
		}
		next := nextOccurrence(occ.Date.Time, today)
		if next.IsZero() {
			continue
		}
		days := int(math.Round(next.Sub(today).Hours() / 24))
		if days < 0 || days > horizonDays {
			continue
		}
		out = append(out, UpcomingOccasion{Occasion: occ, Next: next, DaysLeft: days})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Next.Before(out[j].Next) })
	return out
}

// nextOccurrence is the first yearly repeat of date on or after today.
// Feb 29 falls back to the last day of February.
func nextOccurrence(date, today time.Time) time.Time {
	monthDay := date.Day()
	if date.Month() == time.February && monthDay == 29 {
		monthDay = -1
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:       rrule.YEARLY,
		Dtstart:    time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, today.Location()),
		Bymonth:    []int{int(date.Month())},
		Bymonthday: []int{monthDay},
	})
	if err != nil {
		return time.Time{}
	}
	return rule.After(today, true)
}

func formatUpcoming(u UpcomingOccasion) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case u.DaysLeft == 0:
		icon = "🎁"
	case u.DaysLeft <= 3:
		icon = "⏳"
	}

	person := html.EscapeString(strings.TrimSpace(u.Occasion.Person))
	sb.WriteString(fmt.Sprintf("%s %s", icon, person))
	if kind := strings.TrimSpace(u.Occasion.OccasionType); kind != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(kind)))
	}

	if u.DaysLeft == 0 {
		sb.WriteString(fmt.Sprintf("\n   📆 %s · <b>today</b>", u.Next.Format("2006-01-02")))
	} else {
		sb.WriteString(fmt.Sprintf("\n   📆 %s · in %d day(s)", u.Next.Format("2006-01-02"), u.DaysLeft))
	}
	sb.WriteString(fmt.Sprintf("\n   /occasion %s", u.Occasion.ID))

	sb.WriteByte('\n')
	return sb.String()
}
