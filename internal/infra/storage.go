package infra

import "strings"

// Storage resolves stored file paths (uploaded PIX proofs, generated
// receipts) to the public URLs clients can fetch them from.
type Storage struct {
	BaseURL string
}

func NewStorage(baseURL string) *Storage {
	return &Storage{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Storage) PublicURL(path string) string {
	return s.BaseURL + "/" + strings.TrimLeft(path, "/")
}
