package dto

import "time"

type AddDocumentInput struct {
	Path  string
	Title string
}

type DocumentOutput struct {
	ID        string
	Title     string
	Path      string
	Kind      string
	PageCount int
	NotePath  string
	AddedAt   time.Time
	UpdatedAt time.Time
}

type RefreshOutput struct {
	Checked int
	Updated int
	Failed  []string
}
