package tool

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderNumber builds a human-readable order number of the shape
// ORDER-<unix-millis>-<5 uppercase alphanumerics>. Collision-resistant, not
// guaranteed unique; the orders table carries a unique index as the backstop.
func GenerateOrderNumber() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("ORDER-%d-%s", time.Now().UnixMilli(), suffix)
}
