package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"interview_booking_app_go/config"
	"interview_booking_app_go/db"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Administrator ===")
	fmt.Println()

	firstName := prompt(reader, "First name: ")
	lastName := prompt(reader, "Last name: ")
	email := prompt(reader, "Email: ")

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println() // New line after password input

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	fmt.Println()

	if string(passwordBytes) != string(confirmBytes) {
		log.Fatal("Passwords do not match")
	}

	user, err := services.RegisterUser(db.DB, services.RegisterInput{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(passwordBytes),
	}, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			log.Fatalf("User with email %s already exists", email)
		}
		log.Fatalf("Failed to create administrator: %v", err)
	}

	fmt.Println()
	fmt.Println("Administrator created successfully!")
	fmt.Printf("ID:    %s\n", user.ID)
	fmt.Printf("Name:  %s\n", user.FullName())
	fmt.Printf("Email: %s\n", user.Email)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}
