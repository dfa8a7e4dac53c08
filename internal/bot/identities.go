package bot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// botNamespace scopes generated bot user IDs so they never collide with Nakama account IDs.
var botNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("dirtyseven.bots"))

type BotIdentity struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Brain       string `json:"brain"` // "basic" or "smart"; empty uses the server default
}

// Roster is the pool of identities bots take when they fill a seat.
type Roster struct {
	identities []BotIdentity
}

var defaultNames = []string{"Ada Bot", "Bert Bot", "Cleo Bot", "Dex Bot", "Echo Bot", "Fay Bot"}

// DefaultRoster returns a built-in roster used when no identities file is available.
func DefaultRoster() *Roster {
	ids := make([]BotIdentity, 0, len(defaultNames))
	for _, name := range defaultNames {
		ids = append(ids, BotIdentity{DisplayName: name})
	}
	return NewRoster(ids)
}

// NewRoster indexes identities, filling in missing user IDs and names.
func NewRoster(identities []BotIdentity) *Roster {
	r := &Roster{identities: make([]BotIdentity, 0, len(identities))}
	for i, identity := range identities {
		if identity.DisplayName == "" {
			identity.DisplayName = identity.Username
		}
		if identity.DisplayName == "" {
			identity.DisplayName = fmt.Sprintf("Bot %d", i+1)
		}
		if identity.Username == "" {
			identity.Username = identity.DisplayName
		}
		if identity.UserID == "" {
			identity.UserID = uuid.NewSHA1(botNamespace, []byte(identity.Username)).String()
		}
		r.identities = append(r.identities, identity)
	}
	return r
}

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot identities: %w", err)
	}

	var identities []BotIdentity
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("bot identities file %s is empty", path)
	}
	return NewRoster(identities), nil
}

// Pick returns an identity for a bot by index (mod pool size).
func (r *Roster) Pick(index int) BotIdentity {
	return r.identities[index%len(r.identities)]
}

// Available returns the first identity whose user ID and name are not in use.
func (r *Roster) Available(taken func(id BotIdentity) bool) (BotIdentity, bool) {
	for _, identity := range r.identities {
		if !taken(identity) {
			return identity, true
		}
	}
	return BotIdentity{}, false
}

// Len returns the number of identities in the pool.
func (r *Roster) Len() int {
	return len(r.identities)
}
