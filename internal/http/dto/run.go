package dto

import "github.com/cesargomez89/slskdsync/internal/domain"

// RunDetail is one run with every attempt it made.
type RunDetail struct {
	domain.Run
	Attempts []domain.Attempt `json:"attempts"`
}

// DuplicateGroup is a library key and the keys judged similar to it.
type DuplicateGroup struct {
	Key     string   `json:"key"`
	Similar []string `json:"similar"`
}

type DuplicatesResponse struct {
	Keys   int              `json:"keys"`
	Groups []DuplicateGroup `json:"groups"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
