package session

import "time"

// Phase is the lifecycle phase of a session.
//
// Legal forward order: Prep -> Active -> Cooldown -> Post -> Completion -> Ended.
// Active loops through edge/recovery/auction cycles. Emergency stop jumps any
// pre-terminal phase straight to Completion. Ended is terminal: every
// transition function returns the state unchanged once it is reached.
type Phase int

const (
	PhasePrep Phase = iota + 1
	PhaseActive
	PhaseCooldown
	PhasePost
	PhaseCompletion
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhasePrep:
		return "prep"
	case PhaseActive:
		return "active"
	case PhaseCooldown:
		return "cooldown"
	case PhasePost:
		return "post"
	case PhaseCompletion:
		return "completion"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Kind classifies a session at creation time.
type Kind string

const (
	// KindStandard is a self-directed session.
	KindStandard Kind = "standard"
	// KindEndurance targets a higher edge count with longer recoveries expected.
	KindEndurance Kind = "endurance"
	// KindAssigned originates from a task in the task bank.
	KindAssigned Kind = "assigned"
)

// ValidKind reports whether k is a member of the closed kind set.
func ValidKind(k Kind) bool {
	switch k {
	case KindStandard, KindEndurance, KindAssigned:
		return true
	}
	return false
}

// CompletionType is a closed enumeration; the scoring switch over it is
// exhaustive so adding a type is a compile-time-checked change.
type CompletionType int

const (
	CompletionUnset CompletionType = iota
	CompletionDenialMaintained
	CompletionHandsFree
	CompletionRuined
	CompletionFullRelease
	CompletionEmergencyStop
)

func (c CompletionType) String() string {
	switch c {
	case CompletionUnset:
		return ""
	case CompletionDenialMaintained:
		return "denial_maintained"
	case CompletionHandsFree:
		return "hands_free"
	case CompletionRuined:
		return "ruined"
	case CompletionFullRelease:
		return "full_release"
	case CompletionEmergencyStop:
		return "emergency_stop"
	default:
		return "unknown"
	}
}

// ParseCompletionType maps the wire/CLI spelling back to the enum.
// Returns CompletionUnset for unrecognized input.
func ParseCompletionType(s string) CompletionType {
	switch s {
	case "denial_maintained":
		return CompletionDenialMaintained
	case "hands_free":
		return CompletionHandsFree
	case "ruined":
		return CompletionRuined
	case "full_release":
		return CompletionFullRelease
	case "emergency_stop":
		return CompletionEmergencyStop
	}
	return CompletionUnset
}

// Mood is the post-session self-report.
type Mood string

const (
	MoodUnset      Mood = ""
	MoodEuphoric   Mood = "euphoric"
	MoodSettled    Mood = "settled"
	MoodRestless   Mood = "restless"
	MoodFrustrated Mood = "frustrated"
	MoodProud      Mood = "proud"
)

// Status mirrors the phase for persistence compatibility. It is coarser
// than Phase and survives into the durable record.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Config is the immutable session input. The single exception to
// immutability is TargetEdges, which may be widened by an accepted
// edge-count auction option.
type Config struct {
	Kind         Kind
	TargetEdges  int
	OriginTaskID string // optional; set when the session was spawned by a task
	Prescribed   bool
}

// EdgeRecord captures one recorded edge. Immutable once appended.
type EdgeRecord struct {
	Number    int           // 1-based, gap-free within a session
	At        time.Time
	Elapsed   time.Duration // since session start
	SinceLast time.Duration // since previous edge; equals Elapsed for edge 1
	Recovery  time.Duration // sampled mandatory recovery window
}

// CommitmentType tags what an auction option commits the user to.
type CommitmentType string

const (
	CommitmentEdgeCount       CommitmentType = "edge_count"
	CommitmentDenialExtension CommitmentType = "denial_extension"
	CommitmentLock            CommitmentType = "lock_commitment"
	CommitmentContentUnlock   CommitmentType = "content_unlock"
	CommitmentTaskAssignment  CommitmentType = "task_assignment"
)

// AuctionOption is one entry of a trigger edge's fixed option set.
// Option sets are static data; never mutated at runtime.
type AuctionOption struct {
	ID          string
	Label       string
	Description string
	Commitment  CommitmentType
	// Value is string-encoded: "+N" widens the edge target, "0" ends the
	// session, "+N days" extends a denial or lock window.
	Value  string
	Reward string // optional
}

// EndNow reports whether this option is the "end session now" choice.
func (o AuctionOption) EndNow() bool {
	return o.Commitment == CommitmentEdgeCount && o.Value == "0"
}

// AuctionResult records one resolved auction. At most one per trigger edge
// per session.
type AuctionResult struct {
	TriggerEdge int
	OptionID    string
	// Auto is true when the countdown expired and the engine selected the
	// highest-commitment option on the user's behalf.
	Auto bool
	At   time.Time
}

// ActiveAuction is the auction currently awaiting resolution. At most one
// exists at a time, and only while the phase is Active.
type ActiveAuction struct {
	TriggerEdge int
	Options     []AuctionOption // highest-commitment option first
	Remaining   int             // countdown seconds
}

// State is the aggregate session state. It is owned exclusively by the
// orchestration engine; all mutation goes through the transition functions
// in this package, which take and return State by value.
type State struct {
	ID     string
	Config Config
	Phase  Phase

	StartedAt time.Time // zero until the active phase begins

	Edges     []EdgeRecord
	EdgeCount int // always == len(Edges); denormalized for fast access

	Recovering  bool
	RecoveryEnd time.Time // zero when not recovering; cleared together with Recovering

	Affirmation    string
	StopConfirming bool
	PrepRemaining  int

	Auction        *ActiveAuction
	AuctionResults []AuctionResult
	Commitments    []AuctionOption

	Mood       Mood
	Notes      string
	Completion CompletionType
	Points     int // set exactly once, when Completion is set
	Status     Status
}

// Clone returns a deep copy safe to hand to read-only observers.
func (s State) Clone() State {
	c := s
	c.Edges = append([]EdgeRecord(nil), s.Edges...)
	c.AuctionResults = append([]AuctionResult(nil), s.AuctionResults...)
	c.Commitments = append([]AuctionOption(nil), s.Commitments...)
	if s.Auction != nil {
		a := *s.Auction
		a.Options = append([]AuctionOption(nil), s.Auction.Options...)
		c.Auction = &a
	}
	return c
}

// Rand is the injectable random source used for recovery sampling and
// affirmation selection. *math/rand/v2.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform int in [0, n). n must be > 0.
	IntN(n int) int
}
