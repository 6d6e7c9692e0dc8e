package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"tradeboard/internal/domain"
)

// ReadUsersFromCSV loads user profiles from a CSV file with a
// "id,display_name,avatar_url,handle" header row.
func ReadUsersFromCSV(filename string) ([]domain.User, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	users := make([]domain.User, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("CSV record has %d fields, expected 4", len(record))
		}
		users = append(users, domain.User{
			ID:          record[0],
			DisplayName: record[1],
			AvatarURL:   record[2],
			Handle:      record[3],
		})
	}
	return users, nil
}
