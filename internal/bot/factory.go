package bot

import "fmt"

// Brain names accepted by NewBrain.
const (
	BrainBasic = "basic"
	BrainSmart = "smart"
)

// NewBrain creates a new AI brain by name.
func NewBrain(name string) (Brain, error) {
	switch name {
	case BrainBasic:
		return &BasicBot{}, nil
	case BrainSmart, "":
		return NewSmartBot(), nil
	default:
		return nil, fmt.Errorf("unknown bot brain: %q", name)
	}
}
