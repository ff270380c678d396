package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tag classifica Affairs; o nome é único.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagRef referencia uma Tag por id existente ou por nome (get-or-create).
type TagRef struct {
	ID   int64
	Name string
}

func (r TagRef) ByID() bool { return r.ID > 0 }

// ParseTagRef interpreta um token vindo do cliente: inteiro => id, senão => nome
func ParseTagRef(token string) TagRef {
	token = strings.TrimSpace(token)
	if id, err := strconv.ParseInt(token, 10, 64); err == nil && id > 0 {
		return TagRef{ID: id}
	}
	return TagRef{Name: token}
}

// Affair é a situação ampla sob a qual Events são propostos.
type Affair struct {
	ID          int64     `json:"id"`
	Manager     string    `json:"manager"`
	Description string    `json:"description"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"creation_date"`
	UpdatedAt   time.Time `json:"modification_date"`
}

// Event é a situação concreta sobre a qual as apostas são feitas.
type Event struct {
	ID             int64     `json:"id"`
	Manager        string    `json:"manager"`
	AffairID       int64     `json:"affair"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Rules          *string   `json:"rules,omitempty"`
	ExpirationDate time.Time `json:"expiration_date"`
	Active         bool      `json:"active"`
	Completed      Outcome   `json:"completed"`
	CreatedAt      time.Time `json:"creation_date"`
	UpdatedAt      time.Time `json:"modification_date"`
}

// Quota é a cotação (probabilidade/coeficiente) de um Event por um período.
type Quota struct {
	ID             int64           `json:"id"`
	Manager        string          `json:"manager"`
	EventID        int64           `json:"event"`
	Probability    decimal.Decimal `json:"probability"`
	Coeficient     decimal.Decimal `json:"coeficient"`
	ExpirationDate time.Time       `json:"expiration_date"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"creation_date"`
	UpdatedAt      time.Time       `json:"modification_date"`
}

// Transaction registra uma movimentação de dinheiro; imutável após criada.
type Transaction struct {
	ID          int64           `json:"id"`
	User        string          `json:"user"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"creation_date"`
	UpdatedAt   time.Time       `json:"modification_date"`
}

// Bet liga uma Transaction a uma Quota para um usuário.
type Bet struct {
	ID                int64           `json:"id"`
	TransactionID     int64           `json:"transaction"`
	QuotaID           int64           `json:"quota"`
	User              string          `json:"user"`
	PotentialEarnings decimal.Decimal `json:"potential_earnings"`
	Won               Outcome         `json:"won"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"creation_date"`
	UpdatedAt         time.Time       `json:"modification_date"`
}

// Prize é o pagamento gerado para uma Bet vencedora.
type Prize struct {
	ID        int64           `json:"id"`
	BetID     int64           `json:"bet"`
	User      string          `json:"user"`
	Reward    decimal.Decimal `json:"reward"`
	CreatedAt time.Time       `json:"creation_date"`
}

// PendingBet é a visão de leitura usada na resolução: a Bet ainda não
// resolvida junto com o valor apostado e a probabilidade da sua Quota.
type PendingBet struct {
	Bet         Bet
	Amount      decimal.Decimal
	Probability decimal.Decimal
}
