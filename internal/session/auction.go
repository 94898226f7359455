package session

import "time"

// TriggerEdges is the fixed set of edge counts that open an auction.
// Each trigger edge produces at most one AuctionResult per session.
var TriggerEdges = []int{5, 8, 10, 13, 16, 20}

// auctionTable maps each trigger edge to its fixed option set.
//
// ORDER IS LOAD-BEARING: the first option is the highest-commitment one,
// and it is what the engine auto-selects when the countdown expires. The
// table is static and read-only at runtime.
var auctionTable = map[int][]AuctionOption{
	5: {
		{
			ID:          "e5-push3",
			Label:       "Push three further",
			Description: "Raise tonight's target by three edges.",
			Commitment:  CommitmentEdgeCount,
			Value:       "+3",
			Reward:      "Unlocks the next audio set",
		},
		{
			ID:          "e5-denial1",
			Label:       "One more day",
			Description: "Extend the current denial window by one day.",
			Commitment:  CommitmentDenialExtension,
			Value:       "+1 day",
		},
		{
			ID:          "e5-push1",
			Label:       "One more edge",
			Description: "Raise tonight's target by a single edge.",
			Commitment:  CommitmentEdgeCount,
			Value:       "+1",
		},
	},
	8: {
		{
			ID:          "e8-lock2",
			Label:       "Lock through the weekend",
			Description: "Commit to two locked days starting tonight.",
			Commitment:  CommitmentLock,
			Value:       "+2 days",
			Reward:      "Unlocks the weekend playlist",
		},
		{
			ID:          "e8-push2",
			Label:       "Two more edges",
			Description: "Raise tonight's target by two edges.",
			Commitment:  CommitmentEdgeCount,
			Value:       "+2",
		},
		{
			ID:          "e8-end",
			Label:       "End the session now",
			Description: "Stop here. Straight to cooldown, nothing owed.",
			Commitment:  CommitmentEdgeCount,
			Value:       "0",
		},
	},
	10: {
		{
			ID:          "e10-task",
			Label:       "Take tomorrow's task",
			Description: "Accept an assigned task for tomorrow evening.",
			Commitment:  CommitmentTaskAssignment,
			Value:       "+1",
			Reward:      "Double points on the assigned task",
		},
		{
			ID:          "e10-unlock",
			Label:       "Earn the vault",
			Description: "Unlock one item from the content vault.",
			Commitment:  CommitmentContentUnlock,
			Value:       "+1",
		},
		{
			ID:          "e10-push1",
			Label:       "One more edge",
			Description: "Raise tonight's target by a single edge.",
			Commitment:  CommitmentEdgeCount,
			Value:       "+1",
		},
	},
	13: {
		{
			ID:          "e13-denial2",
			Label:       "Two more days",
			Description: "Extend the current denial window by two days.",
			Commitment:  CommitmentDenialExtension,
			Value:       "+2 days",
			Reward:      "Unlocks the long-denial audio set",
		},
		{
			ID:          "e13-lock1",
			Label:       "Locked tomorrow",
			Description: "Commit to one locked day tomorrow.",
			Commitment:  CommitmentLock,
			Value:       "+1 day",
		},
		{
			ID:          "e13-end",
			Label:       "End the session now",
			Description: "Stop here. Straight to cooldown, nothing owed.",
			Commitment:  CommitmentEdgeCount,
			Value:       "0",
		},
	},
	16: {
		{
			ID:          "e16-push5",
			Label:       "Push five further",
			Description: "Raise tonight's target by five edges.",
			Commitment:  CommitmentEdgeCount,
			Value:       "+5",
			Reward:      "Unlocks the endurance badge",
		},
		{
			ID:          "e16-task",
			Label:       "Take a weekend task",
			Description: "Accept an assigned task for the weekend.",
			Commitment:  CommitmentTaskAssignment,
			Value:       "+1",
		},
		{
			ID:          "e16-push2",
			Label:       "Two more edges",
			Description: "Raise tonight's target by two edges.",
			Commitment:  CommitmentEdgeCount,
			Value:       "+2",
		},
	},
	20: {
		{
			ID:          "e20-lock3",
			Label:       "Three locked days",
			Description: "Commit to three locked days starting tonight.",
			Commitment:  CommitmentLock,
			Value:       "+3 days",
			Reward:      "Unlocks the devotion audio set",
		},
		{
			ID:          "e20-denial3",
			Label:       "Three more days",
			Description: "Extend the current denial window by three days.",
			Commitment:  CommitmentDenialExtension,
			Value:       "+3 days",
		},
		{
			ID:          "e20-end",
			Label:       "End the session now",
			Description: "Stop here. Straight to cooldown, nothing owed.",
			Commitment:  CommitmentEdgeCount,
			Value:       "0",
		},
	},
}

// OptionsFor returns the fixed option set for a trigger edge.
func OptionsFor(edge int) ([]AuctionOption, bool) {
	opts, ok := auctionTable[edge]
	return opts, ok
}

// ShouldTriggerAuction reports whether recording the latest edge should
// open an auction: the current edge count is a trigger edge that has not
// already produced a result, the phase is still active (never immediately
// after a target-reached transition to cooldown), and no auction is open.
//
// The check is idempotent: once a result exists for the trigger edge it
// returns false no matter how many times it runs.
func ShouldTriggerAuction(s State) bool {
	if s.Phase != PhaseActive || s.Auction != nil {
		return false
	}
	member := false
	for _, e := range TriggerEdges {
		if e == s.EdgeCount {
			member = true
			break
		}
	}
	if !member {
		return false
	}
	for _, r := range s.AuctionResults {
		if r.TriggerEdge == s.EdgeCount {
			return false
		}
	}
	return true
}

// StartAuction attaches the option set for the current edge count. No-op
// when no option set is defined for that edge or the phase is not active.
func StartAuction(s State) State {
	if s.Phase != PhaseActive {
		return s
	}
	opts, ok := OptionsFor(s.EdgeCount)
	if !ok {
		return s
	}
	s.Auction = &ActiveAuction{
		TriggerEdge: s.EdgeCount,
		Options:     opts,
		Remaining:   AuctionSeconds,
	}
	return s
}

// TickAuction decrements the auction countdown. The engine auto-selects
// the first option when Remaining reaches zero.
func TickAuction(s State) State {
	if s.Phase == PhaseEnded || s.Auction == nil || s.Auction.Remaining <= 0 {
		return s
	}
	a := *s.Auction
	a.Remaining--
	s.Auction = &a
	return s
}

// ResolveAuction records the result for the active auction and applies the
// chosen option. No-op when no auction is active.
//
// The end-session-now option ("0" edge-count value) short-circuits: the
// session moves to cooldown with a farewell affirmation and the option is
// NOT appended to the commitments list. Every other option is appended,
// and "+N" edge-count values widen the target.
func ResolveAuction(s State, opt AuctionOption, auto bool, now time.Time) State {
	if s.Phase == PhaseEnded || s.Auction == nil {
		return s
	}

	res := AuctionResult{
		TriggerEdge: s.Auction.TriggerEdge,
		OptionID:    opt.ID,
		Auto:        auto,
		At:          now,
	}
	s.AuctionResults = append(s.AuctionResults[:len(s.AuctionResults):len(s.AuctionResults)], res)
	s.Auction = nil

	if opt.EndNow() {
		s.Phase = PhaseCooldown
		s.Recovering = false
		s.RecoveryEnd = time.Time{}
		s.Affirmation = FarewellAffirmation
		return s
	}

	if opt.Commitment == CommitmentEdgeCount {
		if n, ok := parseDelta(opt.Value); ok {
			s.Config.TargetEdges += n
		}
	}
	s.Commitments = append(s.Commitments[:len(s.Commitments):len(s.Commitments)], opt)
	return s
}
