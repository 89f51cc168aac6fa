package seeder

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

type User struct {
	ID         int64
	Name       string
	Email      string
	Country    string
	SignedUpAt time.Time
}

type Order struct {
	ID        int64
	UserID    int64
	Status    string
	Category  string
	Amount    float64
	Currency  string
	OrderedAt time.Time
}

// Generator produces a deterministic retail dataset for a given seed so
// repeated runs against a fresh database yield identical demo data.
type Generator struct {
	rnd   *rand.Rand
	users int
	base  time.Time
}

func NewGenerator(seed int64, users int) *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)),
		users: users,
		base:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *Generator) User(id int64) User {
	first := pickOne(g.rnd, []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi", "ivan", "judy"})
	return User{
		ID:         id,
		Name:       fmt.Sprintf("%s %c.", first, 'A'+rune(g.rnd.Intn(26))),
		Email:      fmt.Sprintf("%s%d@example.com", first, id),
		Country:    pickOne(g.rnd, []string{"US", "DE", "GB", "IN", "JP", "BR"}),
		SignedUpAt: g.base.Add(time.Duration(g.rnd.Intn(200*24)) * time.Hour),
	}
}

func (g *Generator) Order(id int64) Order {
	category := pickOne(g.rnd, []string{"electronics", "books", "clothing", "games", "grocery", "home"})
	return Order{
		ID:        id,
		UserID:    int64(g.rnd.Intn(g.users)) + 1,
		Status:    g.pickStatus(),
		Category:  category,
		Amount:    round2(5 + g.rnd.Float64()*395),
		Currency:  "USD",
		OrderedAt: g.base.Add(time.Duration(g.rnd.Intn(220*24)) * time.Hour),
	}
}

func (g *Generator) pickStatus() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 70:
		return "completed"
	case p < 85:
		return "shipped"
	case p < 95:
		return "pending"
	default:
		return "cancelled"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
