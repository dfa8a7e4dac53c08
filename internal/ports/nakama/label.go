package nakama

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"dirtyseven/internal/domain"
)

// Label keys queried by the quick_match RPC.
const (
	MatchLabelKey_Game      = "game"
	MatchLabelKey_Open      = "open"
	MatchLabelKey_OpenSeats = "open_seats"
	MatchLabelKey_Phase     = "phase"
	MatchLabelKey_Code      = "code"
)

// buildLabel renders the searchable match label.
func buildLabel(code string, phase domain.Phase, seated, maxSeats int) (string, error) {
	open := maxSeats - seated
	if open < 0 {
		open = 0
	}
	label, err := structpb.NewStruct(map[string]interface{}{
		MatchLabelKey_Game:      GameLabel,
		MatchLabelKey_Code:      code,
		MatchLabelKey_Phase:     string(phase),
		MatchLabelKey_OpenSeats: open,
		MatchLabelKey_Open:      open > 0 && phase == domain.PhaseLobby,
	})
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", fmt.Errorf("marshal label: %w", err)
	}
	return string(b), nil
}
