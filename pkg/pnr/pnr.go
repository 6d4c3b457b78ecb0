package pnr

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	// Alphabet lists the characters a PNR is drawn from
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length is the number of characters in a PNR
	Length = 6
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generator draws PNRs uniformly from Alphabet
type Generator struct {
	random io.Reader
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorWithReader creates a generator reading randomness from r
func NewGeneratorWithReader(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Generate returns a fresh PNR
func (g *Generator) Generate() (string, error) {
	code := make([]byte, Length)
	for i := range code {
		n, err := rand.Int(g.random, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate PNR: %w", err)
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// Valid reports whether s has the shape of a PNR
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
