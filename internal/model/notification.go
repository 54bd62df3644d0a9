// Package model defines the core domain models used throughout the application.
package model

import "fmt"

// RawNotification is a payment-app notification as captured by the OS-level
// observer. It is ephemeral: the observer only ever exposes the single most
// recently seen notification, never a stream.
type RawNotification struct {
	PackageName string
	Title       string
	Body        string
	PostedAt    int64 // epoch milliseconds
}

// Signature identifies a captured notification for change detection.
// Two observations of the same notification produce the same signature.
func (n RawNotification) Signature() string {
	return fmt.Sprintf("%s|%d|%s|%s", n.PackageName, n.PostedAt, n.Title, n.Body)
}
