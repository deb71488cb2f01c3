package credit

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/domain/user"
)

// maxBulkWorkers caps concurrent per-user adjustments. Each adjustment
// locks only its own user row, so disjoint rows proceed in parallel.
const maxBulkWorkers = 8

// BulkCoordinator fans one adjustment out over many user identities,
// recording per-identity outcomes so one bad row never aborts the rest.
type BulkCoordinator struct {
	ledger Service
	users  user.Repository
}

func NewBulkCoordinator(ledger Service, users user.Repository) *BulkCoordinator {
	return &BulkCoordinator{ledger: ledger, users: users}
}

// Apply runs the adjustment once per distinct identity. Identities may
// be user UUIDs or emails. The returned error covers only a malformed
// adjustment spec, which would fail every row identically; per-row
// failures land in the result instead.
func (c *BulkCoordinator) Apply(ctx context.Context, identities []string, adj Adjustment, actor Actor) (BulkResult, error) {
	if err := validateAdjustment(adj); err != nil {
		return BulkResult{}, err
	}

	identities = dedupe(identities)
	resolved, err := c.resolve(ctx, identities)
	if err != nil {
		return BulkResult{}, err
	}

	outcomes := make([]BulkOutcome, len(identities))

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, maxBulkWorkers)

	for i, identity := range identities {
		userID, ok := resolved[identity]
		if !ok {
			outcomes[i] = BulkOutcome{Identity: identity, Error: "UserNotFound"}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, identity string, userID uuid.UUID) {
			defer wg.Done()
			defer func() { <-sem }()

			balance, err := c.ledger.Adjust(ctx, userID, adj, actor)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcomes[i] = BulkOutcome{Identity: identity, Error: ErrorCode(err)}
				return
			}
			outcomes[i] = BulkOutcome{Identity: identity, NewBalance: balance}
		}(i, identity, userID)
	}

	wg.Wait()

	result := BulkResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Error != "" {
			result.Failed++
		} else {
			result.Processed++
		}
	}

	log.Info().
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Str("action", string(adj.Action)).
		Msg("Bulk credit adjustment finished")

	return result, nil
}

// resolve maps each identity to a user ID. UUIDs pass through as-is;
// anything else is treated as an email and looked up in one query.
// Identities that resolve to nothing are simply absent from the map.
func (c *BulkCoordinator) resolve(ctx context.Context, identities []string) (map[string]uuid.UUID, error) {
	resolved := make(map[string]uuid.UUID, len(identities))
	emails := make([]string, 0)

	for _, identity := range identities {
		if id, err := uuid.Parse(identity); err == nil {
			resolved[identity] = id
			continue
		}
		emails = append(emails, identity)
	}

	if len(emails) > 0 {
		users, err := c.users.GetByEmails(ctx, emails)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			resolved[u.Email] = u.ID
		}
	}

	return resolved, nil
}

func dedupe(identities []string) []string {
	seen := make(map[string]struct{}, len(identities))
	out := make([]string, 0, len(identities))
	for _, id := range identities {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
