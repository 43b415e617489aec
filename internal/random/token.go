// Package random provides share-token generation helpers.
//
// It uses crypto/rand so tokens cannot be predicted from previously issued
// ones, which matters because a token alone grants read access to a profile.
package random

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
)

// tokenAlphabet is the 62-symbol alphanumeric alphabet share tokens draw from.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenLength is the fixed length of a share token.
const TokenLength = 32

// NewToken generates a random share token.
//
// Collisions are treated as negligible rather than prevented by construction;
// the storage layer's primary key rejects the astronomically unlikely repeat.
func NewToken() (string, error) {
	alphabetSize := big.NewInt(int64(len(tokenAlphabet)))
	token := make([]byte, TokenLength)
	for i := range token {
		index, err := crand.Int(crand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random token byte: %w", err)
		}
		token[i] = tokenAlphabet[index.Int64()]
	}
	return string(token), nil
}
