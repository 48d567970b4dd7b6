/*
Package portfolio plans and applies donor portfolio handovers.

PURPOSE:
  When an advisor is dismissed, their donors must move to the remaining
  active advisors (or to the house account) without ever leaving the system
  half-reassigned. This package builds a deterministic reassignment plan
  and applies it through the store's atomic batch operation.

DETERMINISM:
  Round-robin dealing is order-stable: donors are sorted by (join date, id)
  and advisors by (name, id) before dealing, so the same inputs always
  produce the same plan. When donor counts don't divide evenly, the
  earliest-sorted advisors receive the extra donors.

ATOMICITY:
  Apply delegates to ReassignmentStore.Reassign, which commits every donor
  update plus the advisor status flip in one transaction or not at all.

SEE ALSO:
  - donation/store.go: ReassignmentStore contract
  - store/sqlite: Transactional implementation
*/
package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/caridade/donation-engine/donation"
)

// HouseAccount receives donors when no active advisor remains, or when an
// operator explicitly parks a portfolio with the company.
const HouseAccount = "company"

// Plan is a computed portfolio handover: the advisor being dismissed and
// the donor moves to apply atomically alongside the status flip.
type Plan struct {
	AdvisorID   string
	AdvisorName string
	Changes     []donation.DonorReassignment
}

// RoundRobin deals the dismissed advisor's donors across the remaining
// active advisors. With no candidates, every donor goes to the house
// account.
func RoundRobin(dismissed donation.Advisor, donors []donation.Donor, advisors []donation.Advisor) Plan {
	owned := ownedBy(dismissed.Name, donors)

	var candidates []donation.Advisor
	for _, a := range advisors {
		if a.ID == dismissed.ID || a.Status != donation.CollaboratorActive {
			continue
		}
		candidates = append(candidates, a)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Name != candidates[j].Name {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].ID < candidates[j].ID
	})

	plan := Plan{AdvisorID: dismissed.ID, AdvisorName: dismissed.Name}
	for i, d := range owned {
		target := HouseAccount
		if len(candidates) > 0 {
			target = candidates[i%len(candidates)].Name
		}
		plan.Changes = append(plan.Changes, donation.DonorReassignment{
			DonorID:     d.ID,
			AdvisorName: target,
		})
	}
	return plan
}

// TransferAll moves the dismissed advisor's whole portfolio to one target
// name (another advisor or HouseAccount).
func TransferAll(dismissed donation.Advisor, donors []donation.Donor, target string) Plan {
	plan := Plan{AdvisorID: dismissed.ID, AdvisorName: dismissed.Name}
	for _, d := range ownedBy(dismissed.Name, donors) {
		plan.Changes = append(plan.Changes, donation.DonorReassignment{
			DonorID:     d.ID,
			AdvisorName: target,
		})
	}
	return plan
}

// Apply commits the plan: every donor move plus the advisor's dismissal in
// one atomic batch. A partial failure commits nothing.
func Apply(ctx context.Context, store donation.ReassignmentStore, plan Plan) error {
	if err := store.Reassign(ctx, plan.AdvisorID, donation.CollaboratorDismissed, plan.Changes); err != nil {
		return fmt.Errorf("reassign portfolio of %s: %w", plan.AdvisorName, err)
	}
	return nil
}

// ownedBy returns the donors currently assigned to the named advisor,
// sorted by (join date, id) for stable dealing.
func ownedBy(advisorName string, donors []donation.Donor) []donation.Donor {
	var owned []donation.Donor
	for _, d := range donors {
		if d.AdvisorName == advisorName {
			owned = append(owned, d)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].JoinDate.Equal(owned[j].JoinDate) {
			return owned[i].JoinDate.Before(owned[j].JoinDate)
		}
		return owned[i].ID < owned[j].ID
	})
	return owned
}
