// Package domain defines the data models and contracts shared across veilchat.
// It contains plain types (wire and session state) and interfaces only.
package domain
