package dto

type OpenPageInput struct {
	DocumentID string
	Page       int
}

type PageOutput struct {
	DocumentID string
	Title      string
	Kind       string
	Page       int
	TotalPages int
	Text       string
}

type CountPagesInput struct {
	Path string
	Kind string
}
