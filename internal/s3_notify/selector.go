package s3_notify

import (
	"fmt"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

const (
	subject      = "Your loyalty points update"
	fallbackName = "Customer"
	fallbackMail = "unknown"
)

// Config holds notification settings
type Config struct {
	RewardMilestone int64 // coins per reward step
}

// DefaultConfig returns a 100-coin reward ladder
func DefaultConfig() Config {
	return Config{RewardMilestone: 100}
}

// Selector picks a template for every earning. Nothing is delivered;
// the output is a log of what would be sent.
type Selector struct {
	milestone int64
	logger    *logger.Logger
}

// NewSelector creates a new notification selector
func NewSelector(cfg Config, log *logger.Logger) *Selector {
	milestone := cfg.RewardMilestone
	if milestone <= 0 {
		milestone = 100
	}
	return &Selector{
		milestone: milestone,
		logger:    log.WithStage(contracts.StageNotifications.String()),
	}
}

// Select returns one notification per ledger result with earned > 0,
// in ledger order. Customers without a segment get the standard template.
func (s *Selector) Select(loyalty []contracts.LoyaltyResult, segments []contracts.RFMRecord, customers []contracts.Customer) []contracts.Notification {
	segmentOf := make(map[string]string, len(segments))
	for _, r := range segments {
		segmentOf[r.CustomerID] = r.Segment
	}
	profiles := make(map[string]contracts.Customer, len(customers))
	for _, c := range customers {
		profiles[c.CustomerID] = c
	}

	zl := s.logger.Zerolog()
	out := make([]contracts.Notification, 0)
	templates := make(map[string]int)
	for _, r := range loyalty {
		if r.Earned <= 0 {
			continue
		}

		segment := segmentOf[r.CustomerID]
		name, email := fallbackName, fallbackMail
		if c, ok := profiles[r.CustomerID]; ok {
			if c.Name != "" {
				name = c.Name
			}
			if c.Email != "" {
				email = c.Email
			}
		}

		distance := s.DistanceToNext(r.NewBalance)
		n := contracts.Notification{
			CustomerID:     r.CustomerID,
			TransactionID:  r.TransactionID,
			Email:          email,
			Segment:        segment,
			Template:       Template(segment),
			PointsEarned:   r.Earned,
			TotalPoints:    r.NewBalance,
			DistanceToNext: distance,
			CallToAction:   CallToAction(distance),
			Subject:        subject,
			Body:           fmt.Sprintf("Hi %s, you earned %d points. Your total balance is %d.", name, r.Earned, r.NewBalance),
		}
		templates[n.Template]++
		out = append(out, n)

		zl.Debug().
			Str("customer_id", n.CustomerID).
			Str("template", n.Template).
			Int64("distance", distance).
			Msg("Notification selected")
	}

	s.logger.WithFields(map[string]interface{}{
		"notifications": len(out),
		"vip":           templates[contracts.TemplateVIPEarned],
		"reactivation":  templates[contracts.TemplateReactivationNudge],
		"standard":      templates[contracts.TemplateStandardEarned],
	}).Info("Notifications selected")

	return out
}

// Template maps a segment to its message template
func Template(segment string) string {
	switch segment {
	case contracts.SegmentHighSpenders:
		return contracts.TemplateVIPEarned
	case contracts.SegmentAtRisk:
		return contracts.TemplateReactivationNudge
	default:
		return contracts.TemplateStandardEarned
	}
}

// DistanceToNext returns the coins left to the next milestone.
// A balance sitting on a milestone is a full step away, never 0.
func (s *Selector) DistanceToNext(balance int64) int64 {
	return s.milestone - (balance % s.milestone)
}

// CallToAction renders the reward nudge
func CallToAction(distance int64) string {
	return fmt.Sprintf("Earn %d more coins for your next reward!", distance)
}
