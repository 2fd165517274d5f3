package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"academy.org/internal/auth"
	"academy.org/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "hash":
		runHash(os.Args[2:])
	case "secret":
		runSecret(os.Args[2:])
	default:
		usage()
	}
}

// runHash prints a bcrypt hash for a users file password_hash entry. The
// password is read from stdin so it stays out of shell history.
func runHash(args []string) {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = fs.Parse(args)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(os.Stderr, "read password: %v\n", err)
		os.Exit(1)
	}
	password := strings.TrimRight(line, "\r\n")

	hash, err := auth.HashPasswordCost(password, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// runSecret prints a random key suitable for jwt.secret_key.
func runSecret(args []string) {
	fs := flag.NewFlagSet("secret", flag.ExitOnError)
	size := fs.Int("bytes", 48, "random bytes before encoding")
	_ = fs.Parse(args)

	if *size < config.MinSecretKeyBytes {
		fmt.Fprintf(os.Stderr, "secret must be at least %d bytes\n", config.MinSecretKeyBytes)
		os.Exit(1)
	}
	buf := make([]byte, *size)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "read random: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(base64.RawURLEncoding.EncodeToString(buf))
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s hash [-cost N] < password | secret [-bytes N]\n", os.Args[0])
	os.Exit(1)
}
