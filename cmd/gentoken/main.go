// Test program to mint JWT tokens for exercising the API by hand.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gatherly/server/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gentoken <user-id>")
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET not set")
		os.Exit(1)
	}

	tokens := auth.NewJWTManager(secret, 168*time.Hour, "gatherly")
	token, err := tokens.Generate(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("JWT Token:")
	fmt.Println(token)
	fmt.Println("\nTest with:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:8080/api/events\n", token)
}
