package observe

// Outcome classifies how a memoized call resolved.
type Outcome string

const (
	// OutcomeHit means the stored entry was returned without computing.
	OutcomeHit Outcome = "hit"
	// OutcomeMiss means the target was computed (and possibly persisted).
	OutcomeMiss Outcome = "miss"
	// OutcomeBypass means caching was off for the call; no storage I/O.
	OutcomeBypass Outcome = "bypass"
	// OutcomeCorrupt means a stored entry failed to decode and was
	// dropped; the call then computed like a miss.
	OutcomeCorrupt Outcome = "corrupt"
	// OutcomeError means the call failed.
	OutcomeError Outcome = "error"
)

func (o Outcome) String() string {
	return string(o)
}
