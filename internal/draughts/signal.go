package draughts

// SignalKind tells the caller what happened to an input.
type SignalKind uint8

const (
	SignalIllegalMove SignalKind = iota + 1
	SignalMustCapture
	SignalMustFinishJump
	SignalSelected
	SignalTurnAdvanced
	SignalGameEnded
)

var signalNames = map[SignalKind]string{
	SignalIllegalMove:    "illegal_move",
	SignalMustCapture:    "must_capture",
	SignalMustFinishJump: "must_finish_jump",
	SignalSelected:       "selected",
	SignalTurnAdvanced:   "turn_advanced",
	SignalGameEnded:      "game_ended",
}

func (k SignalKind) String() string {
	if s, ok := signalNames[k]; ok {
		return s
	}
	return "unknown"
}

// Signal is emitted by ApplyInput. Result is set only for SignalGameEnded.
type Signal struct {
	Kind   SignalKind
	Result *GameResult
}

// IsRejection reports whether the input was refused without changing state.
func (s Signal) IsRejection() bool {
	switch s.Kind {
	case SignalIllegalMove, SignalMustCapture:
		return true
	}
	return false
}

// HasSignal reports whether kind is present in signals.
func HasSignal(signals []Signal, kind SignalKind) bool {
	for _, s := range signals {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// EndResult returns the result carried by a GameEnded signal, if any.
func EndResult(signals []Signal) (GameResult, bool) {
	for _, s := range signals {
		if s.Kind == SignalGameEnded && s.Result != nil {
			return *s.Result, true
		}
	}
	return GameResult{}, false
}
