// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate checks user input before it is sent to the backend.
package validate

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Input errors shown next to form fields.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is not valid")
	ErrPasswordRequired = errors.New("password is required")
	ErrURLRequired      = errors.New("URL is required")
	ErrURLInvalid       = errors.New("enter a valid http(s) URL")
	ErrMessageEmpty     = errors.New("message is empty")
)

// Email checks an email address.
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(s) {
		return ErrEmailInvalid
	}
	return nil
}

// Password checks that a password was entered.
func Password(s string) error {
	if s == "" {
		return ErrPasswordRequired
	}
	return nil
}

// Login checks both login fields and returns the first problem.
func Login(email, password string) error {
	if err := Email(email); err != nil {
		return err
	}
	return Password(password)
}

// URL checks an absolute http or https URL.
func URL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrURLRequired
	}
	u, err := url.ParseRequestURI(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrURLInvalid
	}
	return nil
}

// Message checks a chat message and returns it trimmed.
func Message(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMessageEmpty
	}
	return s, nil
}
