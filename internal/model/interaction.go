package model

type InteractionState int

const (
	Idle InteractionState = iota
	ShowingDeleteAffordance
	ConfirmingDelete
)

func (s InteractionState) String() string {
	switch s {
	case ShowingDeleteAffordance:
		return "showing_delete_affordance"
	case ConfirmingDelete:
		return "confirming_delete"
	default:
		return "idle"
	}
}

func (s InteractionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
