package project

import "fmt"

// ValidationResult reports the outcome of validating a project collection.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateAll checks that every required field is present on every project
// and that every known whoUses reference resolves through [UserLinks].
// The input is not mutated. An empty or nil collection is valid.
func ValidateAll(projects []Project) ValidationResult {
	var errs []string

	for i, p := range projects {
		for _, field := range []struct {
			name  string
			empty bool
		}{
			{"id", p.ID == ""},
			{"title", p.Title == ""},
			{"description", p.Description == ""},
			{"longDescription", p.LongDescription == ""},
			{"icon", p.Icon == ""},
			{"link", p.Link == ""},
			{"docs", p.Docs == ""},
			{"category", p.Category == ""},
			{"status", p.Status == ""},
		} {
			if field.empty {
				errs = append(errs, fmt.Sprintf("project[%d] (id: %s) is missing required field: %s", i, p.ID, field.name))
			}
		}

		for j, ref := range p.WhoUses {
			if ref.Name == "" {
				errs = append(errs, fmt.Sprintf("project[%d] (id: %s) has empty user name at whoUses[%d]", i, p.ID, j))
				continue
			}
			if ref.Known() {
				if _, ok := UserLinks[ref.Name]; !ok {
					errs = append(errs, fmt.Sprintf("project[%d] (id: %s) has unknown user name at whoUses[%d]: %s", i, p.ID, j, ref.Name))
				}
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
