package service

import (
	"bufio"
	"context"
	"io"
	"strings"

	"afya/internal/reference/models"
	dErrors "afya/pkg/domain-errors"
)

// SeedSpecialties loads the cadre/specialty/super-specialty forest from
// tab-separated rows. The first row is a header naming the columns (cadre,
// cadre abbreviation, specialty, super specialty); each following row fills
// at most one level, attaching to the most recent node of the level above.
// Returns the number of specialties created.
func (s *Service) SeedSpecialties(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)

	var fields []string
	var cadre, specialty *models.Specialty
	created := 0

	for line := 0; scanner.Scan(); line++ {
		values := strings.Split(strings.TrimRight(scanner.Text(), "\n"), "\t")
		if line == 0 {
			fields = make([]string, len(values))
			for i, v := range values {
				fields[i] = strings.ToLower(strings.TrimSpace(v))
			}
			continue
		}

		row := make(map[string]string, len(fields))
		for i, f := range fields {
			if i < len(values) {
				row[f] = strings.TrimSpace(values[i])
			}
		}

		if title := row["cadre"]; title != "" {
			node, err := s.CreateSpecialty(ctx, &models.Specialty{
				Title:        title,
				Abbreviation: row["cadre abbreviation"],
			})
			if err != nil {
				return created, err
			}
			cadre = node
			specialty = nil
			created++
		}

		if title := row["specialty"]; title != "" {
			if cadre == nil {
				return created, dErrors.New(dErrors.CodeInvalidInput, "specialty row before any cadre")
			}
			parent := cadre.ID
			node, err := s.CreateSpecialty(ctx, &models.Specialty{
				Title:             title,
				ParentSpecialtyID: &parent,
			})
			if err != nil {
				return created, err
			}
			specialty = node
			created++
		}

		if title := row["super specialty"]; title != "" {
			if specialty == nil {
				return created, dErrors.New(dErrors.CodeInvalidInput, "super specialty row before any specialty")
			}
			parent := specialty.ID
			if _, err := s.CreateSpecialty(ctx, &models.Specialty{
				Title:             title,
				ParentSpecialtyID: &parent,
			}); err != nil {
				return created, err
			}
			created++
		}
	}
	if err := scanner.Err(); err != nil {
		return created, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read specialty seed")
	}
	return created, nil
}
