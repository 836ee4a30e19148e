package stake

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the shape of a bet payload.
type Kind int

const (
	KindUnknown Kind = iota
	KindSport
	KindPlayerProp
	KindCasino
)

func (k Kind) String() string {
	switch k {
	case KindSport:
		return "sport"
	case KindPlayerProp:
		return "player_prop"
	case KindCasino:
		return "casino"
	default:
		return "unknown"
	}
}

// kindOf maps a GraphQL __typename onto the closed Kind set.
func kindOf(typename string) Kind {
	switch typename {
	case "SportBet":
		return KindSport
	case "PlayerPropBet":
		return KindPlayerProp
	case "CasinoBet", "MultiplayerCrashBet", "MultiplayerSlideBet", "SoftswissBet", "EvolutionBet":
		return KindCasino
	default:
		return KindUnknown
	}
}

// Leg is one prediction inside a bet.
type Leg struct {
	Odds       decimal.Decimal
	Fixture    string
	Tournament string
	Category   string
	Sport      string
	// Market names the player prop line; empty for plain sport outcomes.
	Market string
}

// Bet is a snapshot of a single wager as returned by one fetch.
type Bet struct {
	ID        string
	IID       string
	Kind      Kind
	Active    bool
	Status    string
	Amount    decimal.Decimal
	Currency  string
	Legs      []Leg
}

type rootBetPayload struct {
	ID  string          `json:"id"`
	IID string          `json:"iid"`
	Bet json.RawMessage `json:"bet"`
}

type betHeader struct {
	Typename string              `json:"__typename"`
	ID       string              `json:"id"`
	Active   bool                `json:"active"`
	Status   string              `json:"status"`
	Amount   decimal.NullDecimal `json:"amount"`
	Currency string              `json:"currency"`
}

type sportRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type categoryPayload struct {
	Name  string    `json:"name"`
	Sport *sportRef `json:"sport"`
}

type tournamentPayload struct {
	Name     string           `json:"name"`
	Category *categoryPayload `json:"category"`
}

type fixturePayload struct {
	Name       string             `json:"name"`
	Tournament *tournamentPayload `json:"tournament"`
}

type sportBetPayload struct {
	Outcomes []struct {
		Odds    decimal.Decimal `json:"odds"`
		Fixture *fixturePayload `json:"fixture"`
	} `json:"outcomes"`
}

type playerPropBetPayload struct {
	PlayerProps []struct {
		Odds       decimal.Decimal `json:"odds"`
		PlayerProp *struct {
			Name   string `json:"name"`
			Player *struct {
				Name string `json:"name"`
			} `json:"player"`
			Market *struct {
				Game *struct {
					Fixture *fixturePayload `json:"fixture"`
				} `json:"game"`
			} `json:"market"`
		} `json:"playerProp"`
	} `json:"playerProps"`
}

// DecodeBet interprets one element of a bet feed. Shape problems come back as
// *DataShapeError carrying whatever IID could be read.
func DecodeBet(raw json.RawMessage) (Bet, error) {
	var root rootBetPayload
	if err := json.Unmarshal(raw, &root); err != nil {
		return Bet{}, &DataShapeError{Field: "bet", Reason: err.Error()}
	}
	if root.IID == "" {
		return Bet{}, &DataShapeError{Field: "iid", Reason: "missing"}
	}

	body := bytes.TrimSpace(root.Bet)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return Bet{}, &DataShapeError{IID: root.IID, Field: "bet", Reason: "missing"}
	}

	var header betHeader
	if err := json.Unmarshal(body, &header); err != nil {
		return Bet{}, &DataShapeError{IID: root.IID, Field: "bet", Reason: err.Error()}
	}

	bet := Bet{
		ID:       root.ID,
		IID:      root.IID,
		Kind:     kindOf(header.Typename),
		Active:   header.Active,
		Status:   header.Status,
		Amount:   header.Amount.Decimal,
		Currency: strings.ToLower(strings.TrimSpace(header.Currency)),
	}
	if !header.Amount.Valid {
		return Bet{}, &DataShapeError{IID: root.IID, Field: "amount", Reason: "missing"}
	}
	if bet.Currency == "" {
		return Bet{}, &DataShapeError{IID: root.IID, Field: "currency", Reason: "missing"}
	}

	legs, err := extractLegs(bet.Kind, body)
	if err != nil {
		err.IID = root.IID
		return Bet{}, err
	}
	bet.Legs = legs
	return bet, nil
}

func extractLegs(kind Kind, body json.RawMessage) ([]Leg, *DataShapeError) {
	switch kind {
	case KindSport:
		return sportLegs(body)
	case KindPlayerProp:
		return playerPropLegs(body)
	default:
		return nil, nil
	}
}

func sportLegs(body json.RawMessage) ([]Leg, *DataShapeError) {
	var payload sportBetPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DataShapeError{Field: "outcomes", Reason: err.Error()}
	}
	legs := make([]Leg, 0, len(payload.Outcomes))
	for _, outcome := range payload.Outcomes {
		leg, shapeErr := fixtureLeg(outcome.Odds, outcome.Fixture, "outcomes.fixture")
		if shapeErr != nil {
			return nil, shapeErr
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func playerPropLegs(body json.RawMessage) ([]Leg, *DataShapeError) {
	var payload playerPropBetPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DataShapeError{Field: "playerProps", Reason: err.Error()}
	}
	legs := make([]Leg, 0, len(payload.PlayerProps))
	for _, prop := range payload.PlayerProps {
		line := prop.PlayerProp
		if line == nil || line.Market == nil || line.Market.Game == nil {
			return nil, &DataShapeError{Field: "playerProps.playerProp.market", Reason: "missing"}
		}
		leg, shapeErr := fixtureLeg(prop.Odds, line.Market.Game.Fixture, "playerProps.market.game.fixture")
		if shapeErr != nil {
			return nil, shapeErr
		}
		leg.Market = line.Name
		if line.Player != nil && line.Player.Name != "" {
			leg.Market = line.Player.Name + " " + line.Name
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func fixtureLeg(odds decimal.Decimal, fixture *fixturePayload, field string) (Leg, *DataShapeError) {
	if fixture == nil {
		return Leg{}, &DataShapeError{Field: field, Reason: "missing"}
	}
	t := fixture.Tournament
	if t == nil || t.Category == nil || t.Category.Sport == nil {
		return Leg{}, &DataShapeError{Field: field + ".tournament.category.sport", Reason: "missing"}
	}
	return Leg{
		Odds:       odds,
		Fixture:    fixture.Name,
		Tournament: t.Name,
		Category:   t.Category.Name,
		Sport:      t.Category.Sport.Slug,
	}, nil
}
