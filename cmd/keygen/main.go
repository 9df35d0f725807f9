package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
)

// Prints fresh secrets for the environment file: the medical data
// encryption key and a JWT signing secret.
func main() {
	medicalKey, err := generateRandomHex(64)
	if err != nil {
		log.Fatalf("failed to generate medical data key: %v", err)
	}
	jwtSecret, err := generateRandomHex(64)
	if err != nil {
		log.Fatalf("failed to generate jwt secret: %v", err)
	}

	fmt.Println("Generated secrets")
	fmt.Printf("MEDICAL_DATA_ENCRYPTION_KEY=%s\n", medicalKey)
	fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
}

func generateRandomHex(n int) (string, error) {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
