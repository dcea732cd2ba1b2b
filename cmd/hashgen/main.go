package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/iudanet/ristopoint/internal/server/auth"
)

// hashgen генерирует соль и scrypt-хеш пароля администратора и печатает
// готовые переменные окружения для сервера.
func main() {
	login := flag.String("login", auth.DefaultLogin, "Admin login to print alongside the hash")
	flag.Parse()

	password := strings.TrimSpace(flag.Arg(0))
	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "hashgen: %v\n", err)
			os.Exit(1)
		}
	}

	if len(password) < 8 {
		fmt.Fprintln(os.Stderr, "hashgen: password must be at least 8 characters")
		os.Exit(1)
	}

	salt, err := auth.NewSalt()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashgen: %v\n", err)
		os.Exit(1)
	}
	hash, err := auth.HashPassword(password, salt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashgen: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("RISTO_ADMIN_LOGIN=%s\n", *login)
	fmt.Printf("RISTO_ADMIN_PASSWORD_SALT=%s\n", salt)
	fmt.Printf("RISTO_ADMIN_PASSWORD_HASH=%s\n", hash)
}

// promptPassword читает пароль со скрытым вводом, если терминал
// интерактивный, иначе обычной строкой со stdin.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var password string
		if _, err := fmt.Fscanln(os.Stdin, &password); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(password), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
