// Package badges awards donor milestone badges off the global ledger.
//
// Badge minting is a side channel of donation reporting: it runs after the
// ledger update, failures are logged and never surface to the donor, and an
// award that cannot be minted is retried on the donor's next donation.
package badges

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	id "givepool/pkg/domain"
	"givepool/pkg/platform/events"
)

// Badge names one donor milestone.
type Badge string

const (
	BadgeFirstDonation Badge = "first_donation"
	BadgeBronzeDonor   Badge = "bronze_donor"
	BadgeSilverDonor   Badge = "silver_donor"
	BadgeGoldDonor     Badge = "gold_donor"
)

// tiers maps cumulative-total thresholds (subunits) to badges, checked in
// ascending order.
var tiers = []struct {
	threshold int64
	badge     Badge
}{
	{1_000, BadgeFirstDonation},
	{100_000, BadgeBronzeDonor},
	{1_000_000, BadgeSilverDonor},
	{10_000_000, BadgeGoldDonor},
}

// BadgeID identifies one minted badge token.
type BadgeID string

// Issuer mints a badge token for a donor. The amount is the cumulative
// milestone the mint commemorates, so implementations derive the tier from
// it; project is the project whose donation report triggered the mint, zero
// when the operator trigger evaluated the cross-project total. The metadata
// reference is prepared off-platform and passed through opaque.
//
// Implementations may mint NFTs, write rows, or call external services.
type Issuer interface {
	Mint(ctx context.Context, donor id.AccountID, project id.ProjectID, amount int64, metadataRef id.ContentHash) (BadgeID, error)
}

// Publisher is the event emission surface the trigger uses.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service evaluates milestone thresholds after every recorded donation and
// mints each badge at most once per donor.
type Service struct {
	issuer    Issuer
	publisher Publisher
	logger    *slog.Logger

	mu      sync.Mutex
	awarded map[id.AccountID]map[Badge]bool
}

func NewService(issuer Issuer, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		issuer:    issuer,
		publisher: publisher,
		logger:    logger,
		awarded:   make(map[id.AccountID]map[Badge]bool),
	}
}

// Evaluate mints every badge whose threshold the donor's cumulative total
// now meets, one mint per newly reached tier. Mint failures are logged; the
// badge stays unawarded so the next evaluation retries it.
func (s *Service) Evaluate(ctx context.Context, donor id.AccountID, project id.ProjectID, cumulativeTotal int64, metadataRef id.ContentHash) {
	for _, tier := range tiers {
		if cumulativeTotal < tier.threshold {
			break
		}
		if s.alreadyAwarded(donor, tier.badge) {
			continue
		}
		badgeID, err := s.issuer.Mint(ctx, donor, project, tier.threshold, metadataRef)
		if err != nil {
			s.logger.Warn("badge mint failed", "donor", donor, "badge", tier.badge, "error", err)
			continue
		}
		s.markAwarded(donor, tier.badge)
		if s.publisher != nil {
			event := events.Event{
				Type:    events.EventBadgeMinted,
				Account: donor,
				Status:  string(tier.badge),
			}
			if err := s.publisher.Emit(ctx, event); err != nil {
				s.logger.Warn("badge event emission failed", "donor", donor, "error", err)
			}
		}
		s.logger.Info("badge minted", "donor", donor, "badge", tier.badge, "badge_id", badgeID)
	}
}

// Awarded lists the badges a donor holds.
func (s *Service) Awarded(donor id.AccountID) []Badge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Badge
	for _, tier := range tiers {
		if s.awarded[donor][tier.badge] {
			out = append(out, tier.badge)
		}
	}
	return out
}

func (s *Service) alreadyAwarded(donor id.AccountID, badge Badge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awarded[donor][badge]
}

func (s *Service) markAwarded(donor id.AccountID, badge Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awarded[donor] == nil {
		s.awarded[donor] = make(map[Badge]bool)
	}
	s.awarded[donor][badge] = true
}

// NoopIssuer accepts every mint. Used when no real issuer is configured.
type NoopIssuer struct{}

func (NoopIssuer) Mint(context.Context, id.AccountID, id.ProjectID, int64, id.ContentHash) (BadgeID, error) {
	return BadgeID(uuid.NewString()), nil
}
